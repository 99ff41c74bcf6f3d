package application

import (
	"context"
	"fmt"
	"time"

	"exchange-rates-service/internal/domain"
	"exchange-rates-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

// Clock abstracts time.Now for deterministic job tests.
type Clock interface{ Now() time.Time }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// BatchJobs are the operational entrypoints invoked by the jobs CLI and the
// background worker. They never raise past their boundary: each returns a
// structured result record, reserving a false success flag for structural
// failures.
type BatchJobs struct {
	engine   *BackfillEngine
	rates    RateRepo
	registry ProviderRegistry
	clock    Clock
}

type JobsOption func(*BatchJobs)

func WithJobsClock(c Clock) JobsOption { return func(j *BatchJobs) { j.clock = c } }

func NewBatchJobs(engine *BackfillEngine, rates RateRepo, registry ProviderRegistry, opts ...JobsOption) *BatchJobs {
	j := &BatchJobs{engine: engine, rates: rates, registry: registry}
	for _, opt := range opts {
		opt(j)
	}
	if j.clock == nil {
		j.clock = realClock{}
	}
	return j
}

// LoadHistoricalData parses the date range and runs a backfill over it.
func (j *BatchJobs) LoadHistoricalData(ctx context.Context, dateFrom, dateTo string) domain.BackfillResult {
	from, err := time.Parse(domain.DateLayout, dateFrom)
	if err != nil {
		return domain.BackfillResult{Message: fmt.Sprintf("invalid date_from: %v", err)}
	}
	to, err := time.Parse(domain.DateLayout, dateTo)
	if err != nil {
		return domain.BackfillResult{Message: fmt.Sprintf("invalid date_to: %v", err)}
	}
	return j.engine.Run(ctx, from, to)
}

// SyncToday backfills any missing rates for the current date.
func (j *BatchJobs) SyncToday(ctx context.Context) domain.BackfillResult {
	today := domain.DateOnly(j.clock.Now())
	return j.engine.Run(ctx, today, today)
}

type CleanupResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Deleted int64  `json:"deleted"`
}

// CleanupOlderThan purges rate facts older than the given number of days.
func (j *BatchJobs) CleanupOlderThan(ctx context.Context, days int) CleanupResult {
	if days <= 0 {
		return CleanupResult{Message: "days must be a positive integer"}
	}
	cutoff := domain.DateOnly(j.clock.Now()).AddDate(0, 0, -days)
	deleted, err := j.rates.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return CleanupResult{Message: fmt.Sprintf("delete rates: %v", err)}
	}
	logx.L().Info("cleanup.done",
		zap.String("cutoff", cutoff.Format(domain.DateLayout)),
		zap.Int64("deleted", deleted),
	)
	return CleanupResult{Success: true, Deleted: deleted}
}

type ProviderHealth struct {
	Name    string `json:"name"`
	Display string `json:"display_name"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

type HealthCheckResult struct {
	Success   bool             `json:"success"`
	Message   string           `json:"message,omitempty"`
	Providers []ProviderHealth `json:"providers"`
}

// HealthCheckProviders probes each active adapter with a USD/EUR fetch for
// yesterday and reports per-provider outcomes. The run itself succeeds as
// long as the chain could be loaded.
func (j *BatchJobs) HealthCheckProviders(ctx context.Context) HealthCheckResult {
	sources, err := j.registry.ActiveOrdered(ctx)
	if err != nil {
		return HealthCheckResult{Message: fmt.Sprintf("load provider chain: %v", err)}
	}
	if len(sources) == 0 {
		return HealthCheckResult{Success: true, Message: "no active providers configured"}
	}

	probe := domain.DateOnly(j.clock.Now()).AddDate(0, 0, -1)
	out := HealthCheckResult{Success: true}
	for _, src := range sources {
		h := ProviderHealth{Name: string(src.Name()), Display: src.Name().Display()}
		if _, err := src.FetchRate(ctx, "USD", "EUR", probe); err != nil {
			h.Error = err.Error()
		} else {
			h.OK = true
		}
		out.Providers = append(out.Providers, h)
	}
	return out
}
