package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for valuation dates.
const DateLayout = "2006-01-02"

// ExchangeRate is one persisted rate fact: unique per
// (source, target, valuation date), never mutated once written.
type ExchangeRate struct {
	ID            string
	SourceCode    string
	TargetCode    string
	ValuationDate time.Time
	RateValue     decimal.Decimal
	CreatedAt     time.Time
}

// PairKey identifies the ordered pair of an exchange rate, e.g. "USD/EUR".
func PairKey(source, target string) string {
	return source + "/" + target
}

// DateOnly truncates t to midnight UTC. Valuation dates carry no time component.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
