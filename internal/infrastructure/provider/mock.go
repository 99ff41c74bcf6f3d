package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"exchange-rates-service/internal/application"
	"exchange-rates-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Mock generates deterministic pseudo-rates without any network calls.
// The cross rate comes from a fixed USD-relative base table; a ±2%
// perturbation is seeded by the exact (source, target, date) triple, so the
// same query always yields the same value while different dates differ.
type Mock struct{}

var _ application.RateSource = (*Mock)(nil)

func NewMock() *Mock { return &Mock{} }

var mockBaseRates = map[string]decimal.Decimal{
	"USD": decimal.RequireFromString("1.0"),
	"EUR": decimal.RequireFromString("0.85"),
	"GBP": decimal.RequireFromString("0.73"),
	"CHF": decimal.RequireFromString("0.88"),
}

func (*Mock) Name() domain.ProviderName { return domain.ProviderMock }

func (*Mock) FetchRate(_ context.Context, source, target string, date time.Time) (decimal.Decimal, error) {
	srcBase, ok := mockBaseRates[source]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("mock: unsupported currency %s: %w", source, domain.ErrNoRate)
	}
	tgtBase, ok := mockBaseRates[target]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("mock: unsupported currency %s: %w", target, domain.ErrNoRate)
	}

	cross := tgtBase.Div(srcBase)

	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s", source, target, date.Format(domain.DateLayout))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))
	perturbation := decimal.NewFromFloat(0.98 + 0.04*rng.Float64())

	return cross.Mul(perturbation).RoundBank(6), nil
}
