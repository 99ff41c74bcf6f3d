package provider

import (
	"context"
	"fmt"

	"exchange-rates-service/internal/application"
	"exchange-rates-service/internal/config"
	"exchange-rates-service/internal/domain"
	"exchange-rates-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

// Registry composes persisted provider configuration with the static
// name-to-adapter table. It holds no mutable state beyond that table and
// reads configuration fresh on every call, so an admin priority edit or
// activity toggle is visible to the very next resolution.
type Registry struct {
	configs application.ProviderConfigRepo
	table   map[domain.ProviderName]application.RateSource
}

var _ application.ProviderRegistry = (*Registry)(nil)

// NewRegistry builds the adapter table from service configuration. All known
// adapter kinds are constructed up front; whether each participates in
// resolution is decided per call by the persisted Provider records.
func NewRegistry(configs application.ProviderConfigRepo, cfg config.Config) *Registry {
	sources := []application.RateSource{
		NewCurrencyBeacon(cfg.CurrencyBeaconURL, cfg.CurrencyBeaconKey, cfg.RequestTimeout),
		NewExchangeRateAPI(cfg.ExchangeRateAPIURL, cfg.ExchangeRateAPIKey, cfg.RequestTimeout),
		NewMock(),
	}
	table := make(map[domain.ProviderName]application.RateSource, len(sources))
	for _, s := range sources {
		table[s.Name()] = s
	}
	return &Registry{configs: configs, table: table}
}

// Instantiate returns the adapter registered under name, or nil.
func (r *Registry) Instantiate(name domain.ProviderName) application.RateSource {
	return r.table[name]
}

// ActiveOrdered returns adapters for the active provider records in
// ascending priority order. Records whose name has no registered adapter are
// skipped, not fatal.
func (r *Registry) ActiveOrdered(ctx context.Context) ([]application.RateSource, error) {
	cfgs, err := r.configs.ListActiveOrdered(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active providers: %w", err)
	}
	out := make([]application.RateSource, 0, len(cfgs))
	for _, c := range cfgs {
		src := r.table[c.Name]
		if src == nil {
			logx.L().Warn("registry.unknown_provider", zap.String("name", string(c.Name)))
			continue
		}
		out = append(out, src)
	}
	return out, nil
}
