// Package money holds the shared rounding and percentage helpers for all
// price math. Amounts stay at full decimal precision through intermediate
// calculations; Round2 is applied only where a total is surfaced to the
// payment stage or persisted.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// BalancedTolerance is the maximum absolute difference between counted and
// expected cash that still counts as a balanced drawer.
var BalancedTolerance = decimal.RequireFromString("0.01")

// Round2 rounds a monetary amount to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// PercentOf returns base × percent/100 at full precision.
func PercentOf(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Div(hundred)
}

// RatioAsPercent converts a 0..1 ratio into a percentage in 0..100.
func RatioAsPercent(ratio decimal.Decimal) decimal.Decimal {
	return ratio.Mul(hundred)
}

// ClampNonNegative floors negative amounts at zero.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Min returns the smaller of two amounts.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
