package httpserver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"exchange-rates-service/internal/application"
	"exchange-rates-service/internal/domain"

	"github.com/shopspring/decimal"
)

// In-memory doubles used by the handler tests.

var _ application.CurrencyRepo = (*fakeCurrencyRepo)(nil)
var _ application.RateRepo = (*fakeRateRepo)(nil)
var _ application.ProviderConfigRepo = (*fakeProviderRepo)(nil)
var _ application.BackfillJobRepo = (*fakeJobRepo)(nil)
var _ application.ProviderRegistry = (*fakeRegistry)(nil)
var _ application.RateSource = (*fakeSource)(nil)
var _ application.IdempotencyStore = (*fakeIdem)(nil)

type fakeCurrencyRepo struct {
	byCode map[string]domain.Currency
}

func (f *fakeCurrencyRepo) GetByCode(_ context.Context, code string) (domain.Currency, error) {
	c, ok := f.byCode[code]
	if !ok {
		return domain.Currency{}, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeCurrencyRepo) ListAll(context.Context) ([]domain.Currency, error) {
	out := make([]domain.Currency, 0, len(f.byCode))
	for _, c := range f.byCode {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCurrencyRepo) Create(_ context.Context, c domain.Currency) (domain.Currency, error) {
	if f.byCode == nil {
		f.byCode = map[string]domain.Currency{}
	}
	if _, ok := f.byCode[c.Code]; ok {
		return domain.Currency{}, fmt.Errorf("%w: currency %s already exists", domain.ErrValidation, c.Code)
	}
	c.ID = fmt.Sprintf("cur-%d", len(f.byCode)+1)
	f.byCode[c.Code] = c
	return c, nil
}

func (f *fakeCurrencyRepo) Update(_ context.Context, c domain.Currency) (domain.Currency, error) {
	if _, ok := f.byCode[c.Code]; !ok {
		return domain.Currency{}, domain.ErrNotFound
	}
	f.byCode[c.Code] = c
	return c, nil
}

func (f *fakeCurrencyRepo) Delete(_ context.Context, code string) error {
	if _, ok := f.byCode[code]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byCode, code)
	return nil
}

type fakeRateRepo struct {
	mu    sync.Mutex
	store map[string]domain.ExchangeRate
}

func fakeRateKey(source, target string, date time.Time) string {
	return domain.PairKey(source, target) + "@" + date.Format(domain.DateLayout)
}

func (f *fakeRateRepo) Get(_ context.Context, source, target string, date time.Time) (domain.ExchangeRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.store[fakeRateKey(source, target, date)]
	if !ok {
		return domain.ExchangeRate{}, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeRateRepo) Insert(_ context.Context, r domain.ExchangeRate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.store == nil {
		f.store = map[string]domain.ExchangeRate{}
	}
	k := fakeRateKey(r.SourceCode, r.TargetCode, r.ValuationDate)
	if _, ok := f.store[k]; !ok {
		f.store[k] = r
	}
	return nil
}

func (f *fakeRateRepo) BulkInsert(_ context.Context, rates []domain.ExchangeRate) (int64, error) {
	var n int64
	for _, r := range rates {
		before := len(f.store)
		if err := f.Insert(context.Background(), r); err != nil {
			return n, err
		}
		if len(f.store) > before {
			n++
		}
	}
	return n, nil
}

func (f *fakeRateRepo) ListBySource(_ context.Context, source string, from, to time.Time) ([]domain.ExchangeRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ExchangeRate
	for _, r := range f.store {
		if r.SourceCode == source && !r.ValuationDate.Before(from) && !r.ValuationDate.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRateRepo) ExistingForDate(_ context.Context, date time.Time) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]bool{}
	for _, r := range f.store {
		if r.ValuationDate.Equal(date) {
			out[domain.PairKey(r.SourceCode, r.TargetCode)] = true
		}
	}
	return out, nil
}

func (f *fakeRateRepo) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

type fakeProviderRepo struct {
	byName map[domain.ProviderName]domain.ProviderConfig
}

func (f *fakeProviderRepo) ListAll(context.Context) ([]domain.ProviderConfig, error) {
	var out []domain.ProviderConfig
	for _, p := range f.byName {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProviderRepo) ListActiveOrdered(context.Context) ([]domain.ProviderConfig, error) {
	var out []domain.ProviderConfig
	for _, p := range f.byName {
		if p.IsActive {
			out = append(out, p)
		}
	}
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[j].Priority < out[i].Priority {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeProviderRepo) GetByName(_ context.Context, name domain.ProviderName) (domain.ProviderConfig, error) {
	p, ok := f.byName[name]
	if !ok {
		return domain.ProviderConfig{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeProviderRepo) GetByPriority(_ context.Context, priority int) (domain.ProviderConfig, error) {
	for _, p := range f.byName {
		if p.Priority == priority {
			return p, nil
		}
	}
	return domain.ProviderConfig{}, domain.ErrNotFound
}

func (f *fakeProviderRepo) Create(_ context.Context, p domain.ProviderConfig) (domain.ProviderConfig, error) {
	if f.byName == nil {
		f.byName = map[domain.ProviderName]domain.ProviderConfig{}
	}
	f.byName[p.Name] = p
	return p, nil
}

func (f *fakeProviderRepo) Update(_ context.Context, p domain.ProviderConfig) (domain.ProviderConfig, error) {
	if _, ok := f.byName[p.Name]; !ok {
		return domain.ProviderConfig{}, domain.ErrNotFound
	}
	f.byName[p.Name] = p
	return p, nil
}

func (f *fakeProviderRepo) Delete(_ context.Context, name domain.ProviderName) error {
	if _, ok := f.byName[name]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byName, name)
	return nil
}

type fakeJobRepo struct {
	jobs map[string]domain.BackfillJob
}

func (f *fakeJobRepo) CreateQueued(_ context.Context, from, to time.Time) (domain.BackfillJob, error) {
	if f.jobs == nil {
		f.jobs = map[string]domain.BackfillJob{}
	}
	j := domain.BackfillJob{
		ID:          fmt.Sprintf("job-%d", len(f.jobs)+1),
		DateFrom:    from,
		DateTo:      to,
		Status:      domain.BackfillJobQueued,
		RequestedAt: time.Now().UTC(),
	}
	f.jobs[j.ID] = j
	return j, nil
}

func (f *fakeJobRepo) GetByID(_ context.Context, id string) (domain.BackfillJob, error) {
	j, ok := f.jobs[id]
	if !ok {
		return domain.BackfillJob{}, domain.ErrNotFound
	}
	return j, nil
}

func (f *fakeJobRepo) ClaimQueued(context.Context, int) ([]domain.BackfillJob, error) {
	return nil, nil
}

func (f *fakeJobRepo) Complete(context.Context, string, int, []string) error { return nil }
func (f *fakeJobRepo) Fail(context.Context, string, string) error            { return nil }

type fakeSource struct {
	name  domain.ProviderName
	value decimal.Decimal
	err   error
}

func (s *fakeSource) Name() domain.ProviderName { return s.name }

func (s *fakeSource) FetchRate(context.Context, string, string, time.Time) (decimal.Decimal, error) {
	if s.err != nil {
		return decimal.Decimal{}, s.err
	}
	return s.value, nil
}

type fakeRegistry struct {
	sources []application.RateSource
}

func (r *fakeRegistry) ActiveOrdered(context.Context) ([]application.RateSource, error) {
	return r.sources, nil
}

type fakeIdem struct {
	seen map[string]bool
}

func (f *fakeIdem) TryReserve(_ context.Context, key string) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}
