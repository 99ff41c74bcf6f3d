package application

import (
	"context"
	"time"

	"exchange-rates-service/internal/domain"

	"github.com/shopspring/decimal"
)

type CurrencyRepo interface {
	GetByCode(ctx context.Context, code string) (domain.Currency, error)
	ListAll(ctx context.Context) ([]domain.Currency, error)
	Create(ctx context.Context, c domain.Currency) (domain.Currency, error)
	Update(ctx context.Context, c domain.Currency) (domain.Currency, error)
	Delete(ctx context.Context, code string) error
}

type RateRepo interface {
	Get(ctx context.Context, source, target string, date time.Time) (domain.ExchangeRate, error)
	// Insert persists one rate. A duplicate (source, target, date) key is a
	// silent no-op, never an error.
	Insert(ctx context.Context, r domain.ExchangeRate) error
	// BulkInsert persists many rates in one round trip with duplicate keys
	// ignored; it returns the number of rows actually written.
	BulkInsert(ctx context.Context, rates []domain.ExchangeRate) (int64, error)
	ListBySource(ctx context.Context, source string, dateFrom, dateTo time.Time) ([]domain.ExchangeRate, error)
	// ExistingForDate returns the set of pair keys already persisted for date.
	ExistingForDate(ctx context.Context, date time.Time) (map[string]bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type ProviderConfigRepo interface {
	ListAll(ctx context.Context) ([]domain.ProviderConfig, error)
	ListActiveOrdered(ctx context.Context) ([]domain.ProviderConfig, error)
	GetByName(ctx context.Context, name domain.ProviderName) (domain.ProviderConfig, error)
	GetByPriority(ctx context.Context, priority int) (domain.ProviderConfig, error)
	Create(ctx context.Context, p domain.ProviderConfig) (domain.ProviderConfig, error)
	Update(ctx context.Context, p domain.ProviderConfig) (domain.ProviderConfig, error)
	Delete(ctx context.Context, name domain.ProviderName) error
}

// RateSource is one external rate provider behind a uniform capability.
// FetchRate reports ordinary "no data" conditions (including transport and
// parse failures, which adapters recover locally) as domain.ErrNoRate, and
// missing credentials as domain.ErrProviderUnavailable.
type RateSource interface {
	Name() domain.ProviderName
	FetchRate(ctx context.Context, source, target string, date time.Time) (decimal.Decimal, error)
}

// ProviderRegistry resolves the active, priority-ordered adapter list from
// persisted configuration. Implementations read configuration fresh on every
// call so admin edits take effect without restart.
type ProviderRegistry interface {
	ActiveOrdered(ctx context.Context) ([]RateSource, error)
}

type BackfillJobRepo interface {
	CreateQueued(ctx context.Context, dateFrom, dateTo time.Time) (domain.BackfillJob, error)
	GetByID(ctx context.Context, id string) (domain.BackfillJob, error)
	ClaimQueued(ctx context.Context, limit int) ([]domain.BackfillJob, error)
	Complete(ctx context.Context, id string, ratesLoaded int, errs []string) error
	Fail(ctx context.Context, id string, msg string) error
}
