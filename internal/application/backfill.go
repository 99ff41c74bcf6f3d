package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"exchange-rates-service/internal/domain"
	"exchange-rates-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

const defaultBackfillConcurrency = 8

// BackfillEngine bulk-loads historical rates for a date range. Dates are
// processed sequentially to bound memory and write-batch size; within a date,
// all ordered currency pairs are fetched concurrently from the single
// top-priority provider. Backfill deliberately has no per-pair fallback
// chain: one provider keeps total request volume and rate-limit usage
// predictable, while the interactive resolver keeps the full chain.
type BackfillEngine struct {
	currencies  CurrencyRepo
	rates       RateRepo
	registry    ProviderRegistry
	concurrency int
}

func NewBackfillEngine(currencies CurrencyRepo, rates RateRepo, registry ProviderRegistry, concurrency int) *BackfillEngine {
	if concurrency <= 0 {
		concurrency = defaultBackfillConcurrency
	}
	return &BackfillEngine{
		currencies:  currencies,
		rates:       rates,
		registry:    registry,
		concurrency: concurrency,
	}
}

type fetchedRate struct {
	source string
	target string
	rate   domain.ExchangeRate
}

// Run loads rates for every ordered currency pair for each date in
// [dateFrom, dateTo]. Individual pair or date failures are collected into
// the result's error list; only structural failures flip Success to false.
func (e *BackfillEngine) Run(ctx context.Context, dateFrom, dateTo time.Time) domain.BackfillResult {
	dateFrom, dateTo = domain.DateOnly(dateFrom), domain.DateOnly(dateTo)
	res := domain.BackfillResult{
		DateFrom: dateFrom.Format(domain.DateLayout),
		DateTo:   dateTo.Format(domain.DateLayout),
	}
	if dateFrom.After(dateTo) {
		res.Message = "invalid date range: date_from must be before or equal to date_to"
		return res
	}

	sources, err := e.registry.ActiveOrdered(ctx)
	if err != nil {
		res.Message = fmt.Sprintf("load provider chain: %v", err)
		return res
	}
	if len(sources) == 0 {
		res.Message = "no active provider found; activate at least one provider"
		return res
	}
	src := sources[0]

	currencies, err := e.currencies.ListAll(ctx)
	if err != nil {
		res.Message = fmt.Sprintf("load currencies: %v", err)
		return res
	}
	if len(currencies) == 0 {
		res.Message = "no currencies configured"
		return res
	}

	log := logx.L().With(
		zap.String("provider", string(src.Name())),
		zap.String("date_from", res.DateFrom),
		zap.String("date_to", res.DateTo),
		zap.Int("currencies", len(currencies)),
	)
	log.Info("backfill.start")

	res.Success = true
	for d := dateFrom; !d.After(dateTo); d = d.AddDate(0, 0, 1) {
		day := d.Format(domain.DateLayout)
		fetched, misses := e.fetchDate(ctx, src, currencies, d)
		res.Errors = append(res.Errors, misses...)
		if len(fetched) == 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("no rates fetched for %s", day))
			continue
		}

		existing, err := e.rates.ExistingForDate(ctx, d)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: read existing rates: %v", day, err))
			continue
		}
		toInsert := make([]domain.ExchangeRate, 0, len(fetched))
		for _, f := range fetched {
			if existing[domain.PairKey(f.source, f.target)] {
				continue
			}
			toInsert = append(toInsert, f.rate)
		}
		if len(toInsert) == 0 {
			continue
		}

		n, err := e.rates.BulkInsert(ctx, toInsert)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: bulk insert: %v", day, err))
			continue
		}
		res.RatesLoaded += int(n)
		log.Info("backfill.date_done", zap.String("date", day), zap.Int64("inserted", n))
	}

	log.Info("backfill.done", zap.Int("rates_loaded", res.RatesLoaded), zap.Int("errors", len(res.Errors)))
	return res
}

// fetchDate fans out one fetch per ordered pair, bounded by e.concurrency,
// and collects successes and per-pair failure lines. A failed pair never
// aborts its siblings.
func (e *BackfillEngine) fetchDate(ctx context.Context, src RateSource, currencies []domain.Currency, date time.Time) ([]fetchedRate, []string) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []fetchedRate
		misses  []string
	)
	sem := make(chan struct{}, e.concurrency)

	for _, a := range currencies {
		for _, b := range currencies {
			if a.Code == b.Code {
				continue
			}
			source, target := a.Code, b.Code
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				value, err := src.FetchRate(ctx, source, target, date)
				if err != nil {
					logx.L().Warn("backfill.pair_miss",
						zap.String("source", source),
						zap.String("target", target),
						zap.String("date", date.Format(domain.DateLayout)),
						zap.Error(err),
					)
					mu.Lock()
					misses = append(misses, fmt.Sprintf("%s %s: %v",
						domain.PairKey(source, target), date.Format(domain.DateLayout), err))
					mu.Unlock()
					return
				}
				mu.Lock()
				results = append(results, fetchedRate{
					source: source,
					target: target,
					rate: domain.ExchangeRate{
						SourceCode:    source,
						TargetCode:    target,
						ValuationDate: date,
						RateValue:     QuantizeRate(value),
					},
				})
				mu.Unlock()
			}()
		}
	}
	wg.Wait()
	return results, misses
}
