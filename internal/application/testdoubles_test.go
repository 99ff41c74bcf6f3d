package application_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"exchange-rates-service/internal/application"
	"exchange-rates-service/internal/domain"

	"github.com/shopspring/decimal"
)

var _ application.CurrencyRepo = (*fakeCurrencyRepo)(nil)
var _ application.RateRepo = (*fakeRateRepo)(nil)
var _ application.ProviderConfigRepo = (*fakeProviderConfigRepo)(nil)
var _ application.RateSource = (*stubSource)(nil)
var _ application.ProviderRegistry = (*stubRegistry)(nil)

type fakeCurrencyRepo struct {
	byCode map[string]domain.Currency
}

func newFakeCurrencyRepo(codes ...string) *fakeCurrencyRepo {
	f := &fakeCurrencyRepo{byCode: map[string]domain.Currency{}}
	for _, c := range codes {
		f.byCode[c] = domain.Currency{Code: c, Name: c}
	}
	return f
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
	if _, ok := f.byCode[c.Code]; ok {
		return domain.Currency{}, domain.ErrValidation
	}
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
	mu        sync.Mutex
	store     map[string]domain.ExchangeRate
	insertErr error
	inserts   int
	deleted   int64
}

func rateKey(source, target string, date time.Time) string {
	return domain.PairKey(source, target) + "@" + date.Format(domain.DateLayout)
}

func newFakeRateRepo() *fakeRateRepo {
	return &fakeRateRepo{store: map[string]domain.ExchangeRate{}}
}

func (f *fakeRateRepo) Get(_ context.Context, source, target string, date time.Time) (domain.ExchangeRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.store[rateKey(source, target, date)]
	if !ok {
		return domain.ExchangeRate{}, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeRateRepo) Insert(_ context.Context, r domain.ExchangeRate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	k := rateKey(r.SourceCode, r.TargetCode, r.ValuationDate)
	if _, ok := f.store[k]; !ok {
		f.store[k] = r
	}
	return nil
}

func (f *fakeRateRepo) BulkInsert(_ context.Context, rates []domain.ExchangeRate) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	var n int64
	for _, r := range rates {
		k := rateKey(r.SourceCode, r.TargetCode, r.ValuationDate)
		if _, ok := f.store[k]; ok {
			continue
		}
		f.store[k] = r
		n++
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

func (f *fakeRateRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, r := range f.store {
		if r.ValuationDate.Before(cutoff) {
			delete(f.store, k)
			n++
		}
	}
	f.deleted += n
	return n, nil
}

type fakeProviderConfigRepo struct {
	byName map[domain.ProviderName]domain.ProviderConfig
}

func newFakeProviderConfigRepo(cfgs ...domain.ProviderConfig) *fakeProviderConfigRepo {
	f := &fakeProviderConfigRepo{byName: map[domain.ProviderName]domain.ProviderConfig{}}
	for _, c := range cfgs {
		f.byName[c.Name] = c
	}
	return f
}

func (f *fakeProviderConfigRepo) ListAll(context.Context) ([]domain.ProviderConfig, error) {
	return f.ordered(false), nil
}

func (f *fakeProviderConfigRepo) ListActiveOrdered(context.Context) ([]domain.ProviderConfig, error) {
	return f.ordered(true), nil
}

func (f *fakeProviderConfigRepo) ordered(activeOnly bool) []domain.ProviderConfig {
	var out []domain.ProviderConfig
	for _, c := range f.byName {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	for i := range out {
		for j := i + 1; j < len(out); j++ {
			if out[j].Priority < out[i].Priority {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func (f *fakeProviderConfigRepo) GetByName(_ context.Context, name domain.ProviderName) (domain.ProviderConfig, error) {
	c, ok := f.byName[name]
	if !ok {
		return domain.ProviderConfig{}, domain.ErrNotFound
	}
	return c, nil
}

func (f *fakeProviderConfigRepo) GetByPriority(_ context.Context, priority int) (domain.ProviderConfig, error) {
	for _, c := range f.byName {
		if c.Priority == priority {
			return c, nil
		}
	}
	return domain.ProviderConfig{}, domain.ErrNotFound
}

func (f *fakeProviderConfigRepo) Create(_ context.Context, p domain.ProviderConfig) (domain.ProviderConfig, error) {
	f.byName[p.Name] = p
	return p, nil
}

func (f *fakeProviderConfigRepo) Update(_ context.Context, p domain.ProviderConfig) (domain.ProviderConfig, error) {
	if _, ok := f.byName[p.Name]; !ok {
		return domain.ProviderConfig{}, domain.ErrNotFound
	}
	f.byName[p.Name] = p
	return p, nil
}

func (f *fakeProviderConfigRepo) Delete(_ context.Context, name domain.ProviderName) error {
	if _, ok := f.byName[name]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byName, name)
	return nil
}

// stubSource is a scriptable provider with a call counter.
type stubSource struct {
	mu    sync.Mutex
	name  domain.ProviderName
	value decimal.Decimal
	err   error
	calls int

	// failPairs makes specific pairs fail while others succeed.
	failPairs map[string]error
}

func (s *stubSource) Name() domain.ProviderName { return s.name }

func (s *stubSource) FetchRate(_ context.Context, source, target string, _ time.Time) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err, ok := s.failPairs[domain.PairKey(source, target)]; ok {
		return decimal.Decimal{}, err
	}
	if s.err != nil {
		return decimal.Decimal{}, s.err
	}
	return s.value, nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubRegistry struct {
	sources []application.RateSource
	err     error
	calls   int
}

func (r *stubRegistry) ActiveOrdered(context.Context) ([]application.RateSource, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.sources, nil
}

var errBoom = errors.New("boom")
