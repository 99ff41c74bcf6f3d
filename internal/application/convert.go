package application

import "github.com/shopspring/decimal"

// ratePlaces is the fixed-point precision for rates and converted amounts.
const ratePlaces = 6

// Convert multiplies amount by rate and quantizes to six fractional digits
// using banker's rounding (round half to even). The same rounding is applied
// everywhere a rate is quantized so results are consistent system-wide.
// Amount positivity is enforced at the API boundary, not here.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).RoundBank(ratePlaces)
}

// QuantizeRate applies the system-wide six-digit quantization to a raw rate.
func QuantizeRate(rate decimal.Decimal) decimal.Decimal {
	return rate.RoundBank(ratePlaces)
}
