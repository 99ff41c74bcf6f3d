package application_test

import (
	"context"
	"testing"
	"time"

	"exchange-rates-service/internal/application"
	"exchange-rates-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBackfill_InvalidRange(t *testing.T) {
	t.Parallel()
	e := application.NewBackfillEngine(newFakeCurrencyRepo(), newFakeRateRepo(), &stubRegistry{}, 2)
	res := e.Run(context.Background(), testDate, testDate.AddDate(0, 0, -1))
	require.False(t, res.Success)
	require.Contains(t, res.Message, "date_from must be before or equal to date_to")
}

func TestBackfill_NoActiveProvider(t *testing.T) {
	t.Parallel()
	e := application.NewBackfillEngine(newFakeCurrencyRepo("USD", "EUR"), newFakeRateRepo(), &stubRegistry{}, 2)
	res := e.Run(context.Background(), testDate, testDate)
	require.False(t, res.Success)
	require.Contains(t, res.Message, "no active provider")
}

func TestBackfill_NoCurrencies(t *testing.T) {
	t.Parallel()
	registry := &stubRegistry{sources: []application.RateSource{
		&stubSource{name: domain.ProviderMock, value: decimal.RequireFromString("1.1")},
	}}
	e := application.NewBackfillEngine(newFakeCurrencyRepo(), newFakeRateRepo(), registry, 2)
	res := e.Run(context.Background(), testDate, testDate)
	require.False(t, res.Success)
	require.Equal(t, "no currencies configured", res.Message)
}

func TestBackfill_LoadsAllOrderedPairs(t *testing.T) {
	t.Parallel()
	rates := newFakeRateRepo()
	src := &stubSource{name: domain.ProviderMock, value: decimal.RequireFromString("1.1")}
	registry := &stubRegistry{sources: []application.RateSource{src}}
	e := application.NewBackfillEngine(newFakeCurrencyRepo("USD", "EUR", "GBP"), rates, registry, 2)

	res := e.Run(context.Background(), testDate, testDate.AddDate(0, 0, 1))
	require.True(t, res.Success)
	require.Empty(t, res.Errors)
	// 3 currencies give 6 ordered pairs, over 2 dates.
	require.Equal(t, 12, res.RatesLoaded)
	require.Equal(t, 12, src.callCount())
}

func TestBackfill_SkipsExistingRates(t *testing.T) {
	t.Parallel()
	rates := newFakeRateRepo()
	require.NoError(t, rates.Insert(context.Background(), domain.ExchangeRate{
		SourceCode:    "USD",
		TargetCode:    "EUR",
		ValuationDate: testDate,
		RateValue:     decimal.RequireFromString("0.85"),
	}))
	src := &stubSource{name: domain.ProviderMock, value: decimal.RequireFromString("1.1")}
	registry := &stubRegistry{sources: []application.RateSource{src}}
	e := application.NewBackfillEngine(newFakeCurrencyRepo("USD", "EUR"), rates, registry, 2)

	res := e.Run(context.Background(), testDate, testDate)
	require.True(t, res.Success)
	require.Equal(t, 1, res.RatesLoaded)

	// Rerun is a no-op: everything is already persisted.
	res = e.Run(context.Background(), testDate, testDate)
	require.True(t, res.Success)
	require.Zero(t, res.RatesLoaded)

	// The pre-existing value was not overwritten.
	kept, err := rates.Get(context.Background(), "USD", "EUR", testDate)
	require.NoError(t, err)
	require.True(t, kept.RateValue.Equal(decimal.RequireFromString("0.85")))
}

func TestBackfill_PairFailureDoesNotAbortSiblings(t *testing.T) {
	t.Parallel()
	rates := newFakeRateRepo()
	src := &stubSource{
		name:      domain.ProviderMock,
		value:     decimal.RequireFromString("1.1"),
		failPairs: map[string]error{domain.PairKey("USD", "GBP"): domain.ErrNoRate},
	}
	registry := &stubRegistry{sources: []application.RateSource{src}}
	e := application.NewBackfillEngine(newFakeCurrencyRepo("USD", "EUR", "GBP"), rates, registry, 2)

	res := e.Run(context.Background(), testDate, testDate)
	require.True(t, res.Success)
	require.Equal(t, 5, res.RatesLoaded)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0], "USD/GBP")
}

func TestBackfill_AllPairsFailRecordsDate(t *testing.T) {
	t.Parallel()
	src := &stubSource{name: domain.ProviderMock, err: domain.ErrNoRate}
	registry := &stubRegistry{sources: []application.RateSource{src}}
	e := application.NewBackfillEngine(newFakeCurrencyRepo("USD", "EUR"), newFakeRateRepo(), registry, 2)

	res := e.Run(context.Background(), testDate, testDate)
	require.True(t, res.Success)
	require.Zero(t, res.RatesLoaded)
	require.Contains(t, res.Errors, "no rates fetched for "+testDate.Format(domain.DateLayout))
}

func TestBackfill_UsesTopPriorityProviderOnly(t *testing.T) {
	t.Parallel()
	first := &stubSource{name: domain.ProviderCurrencyBeacon, value: decimal.RequireFromString("0.9")}
	second := &stubSource{name: domain.ProviderMock, value: decimal.RequireFromString("1.1")}
	registry := &stubRegistry{sources: []application.RateSource{first, second}}
	e := application.NewBackfillEngine(newFakeCurrencyRepo("USD", "EUR"), newFakeRateRepo(), registry, 2)

	res := e.Run(context.Background(), testDate, testDate)
	require.True(t, res.Success)
	require.Equal(t, 2, first.callCount())
	require.Zero(t, second.callCount())
}

func TestBackfill_NormalizesDatesToMidnightUTC(t *testing.T) {
	t.Parallel()
	rates := newFakeRateRepo()
	src := &stubSource{name: domain.ProviderMock, value: decimal.RequireFromString("1.1")}
	registry := &stubRegistry{sources: []application.RateSource{src}}
	e := application.NewBackfillEngine(newFakeCurrencyRepo("USD", "EUR"), rates, registry, 2)

	noon := time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC)
	res := e.Run(context.Background(), noon, noon)
	require.True(t, res.Success)

	_, err := rates.Get(context.Background(), "USD", "EUR", testDate)
	require.NoError(t, err)
}
