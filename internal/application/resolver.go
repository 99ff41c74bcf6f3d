package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"exchange-rates-service/internal/domain"
	"exchange-rates-service/internal/infrastructure/logx"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateResolver answers single-pair lookups: store first, then the active
// providers in ascending priority order, persisting the first success.
type RateResolver struct {
	currencies CurrencyRepo
	rates      RateRepo
	registry   ProviderRegistry
}

func NewRateResolver(currencies CurrencyRepo, rates RateRepo, registry ProviderRegistry) *RateResolver {
	return &RateResolver{currencies: currencies, rates: rates, registry: registry}
}

// Resolve returns the exchange rate for (source, target) on date.
//
// Error taxonomy: domain.ErrCurrencyNotFound when either code is unknown
// (providers are never consulted), domain.ErrNoProviderAvailable when the
// active chain is empty, domain.ErrProviderUnavailable when every active
// adapter is misconfigured, domain.ErrAllProvidersFailed when the chain was
// walked without a hit. Provider transport and parse failures are recovered
// inside the adapters and surface here only as fallback steps.
func (r *RateResolver) Resolve(ctx context.Context, source, target string, date time.Time) (domain.ExchangeRate, error) {
	source, target = domain.NormalizeCode(source), domain.NormalizeCode(target)
	date = domain.DateOnly(date)
	log := logx.L().With(
		zap.String("source", source),
		zap.String("target", target),
		zap.String("date", date.Format(domain.DateLayout)),
	)

	for _, code := range []string{source, target} {
		if _, err := r.currencies.GetByCode(ctx, code); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ExchangeRate{}, fmt.Errorf("%s: %w", code, domain.ErrCurrencyNotFound)
			}
			return domain.ExchangeRate{}, fmt.Errorf("lookup currency %s: %w", code, err)
		}
	}

	rate, err := r.rates.Get(ctx, source, target, date)
	if err == nil {
		log.Debug("resolve.cache_hit")
		return rate, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.ExchangeRate{}, fmt.Errorf("read rate store: %w", err)
	}

	sources, err := r.registry.ActiveOrdered(ctx)
	if err != nil {
		return domain.ExchangeRate{}, fmt.Errorf("load provider chain: %w", err)
	}
	if len(sources) == 0 {
		return domain.ExchangeRate{}, domain.ErrNoProviderAvailable
	}

	unavailable := 0
	for _, src := range sources {
		value, err := src.FetchRate(ctx, source, target, date)
		if err != nil {
			if errors.Is(err, domain.ErrProviderUnavailable) {
				unavailable++
			}
			log.Warn("resolve.provider_miss",
				zap.String("provider", string(src.Name())),
				zap.Error(err),
			)
			continue
		}

		log.Info("resolve.provider_hit",
			zap.String("provider", string(src.Name())),
			zap.String("rate", value.String()),
		)
		resolved := domain.ExchangeRate{
			SourceCode:    source,
			TargetCode:    target,
			ValuationDate: date,
			RateValue:     QuantizeRate(value),
		}
		// Best-effort write: losing the race against a concurrent resolver of
		// the same fact must not fail the caller.
		if err := r.rates.Insert(ctx, resolved); err != nil {
			log.Warn("resolve.persist_failed", zap.Error(err))
		}
		return resolved, nil
	}

	if unavailable == len(sources) {
		return domain.ExchangeRate{}, domain.ErrProviderUnavailable
	}
	return domain.ExchangeRate{}, domain.ErrAllProvidersFailed
}

// Conversion is the result of converting an amount at a resolved rate.
type Conversion struct {
	SourceCurrency  string
	TargetCurrency  string
	Amount          decimal.Decimal
	Rate            decimal.Decimal
	ConvertedAmount decimal.Decimal
	ValuationDate   time.Time
}

// ConvertAmount resolves the rate for (source, target, date) and applies it
// to amount. Amount positivity is validated by the caller.
func (r *RateResolver) ConvertAmount(ctx context.Context, source, target string, amount decimal.Decimal, date time.Time) (Conversion, error) {
	rate, err := r.Resolve(ctx, source, target, date)
	if err != nil {
		return Conversion{}, err
	}
	return Conversion{
		SourceCurrency:  rate.SourceCode,
		TargetCurrency:  rate.TargetCode,
		Amount:          amount,
		Rate:            rate.RateValue,
		ConvertedAmount: Convert(amount, rate.RateValue),
		ValuationDate:   rate.ValuationDate,
	}, nil
}
