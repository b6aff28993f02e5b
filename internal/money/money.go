// Package money holds the exact decimal arithmetic used for prices and usage counts.
// Nothing in this package touches float64.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// CostPlaces is the number of decimal places a final cost is rounded to.
	CostPlaces int32 = 10

	unitsPerPrice = 1_000_000
)

// PerMillion is the divisor applied to every per-unit price.
//
//nolint:gochecknoglobals // immutable decimal constant
var PerMillion = decimal.NewFromInt(unitsPerPrice)

// Multiply returns price × count at full precision.
func Multiply(price decimal.Decimal, count decimal.Decimal) decimal.Decimal {
	return price.Mul(count)
}

// MultiplyInt is Multiply for integer counters.
func MultiplyInt(price decimal.Decimal, count int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(count))
}

// Sum adds terms at full precision.
func Sum(terms ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, term := range terms {
		total = total.Add(term)
	}
	return total
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(v, lo), hi)
}

// AtLeast bounds v from below only.
func AtLeast(v, lo decimal.Decimal) decimal.Decimal {
	return decimal.Max(v, lo)
}

// ScaleAndRoundUp divides v by divisor and rounds the quotient toward positive
// infinity at the given number of decimal places. The division is exact: the
// remainder decides the rounding, not an intermediate precision.
//
// divisor must be positive; a zero divisor panics like decimal.Div.
func ScaleAndRoundUp(v, divisor decimal.Decimal, places int32) decimal.Decimal {
	q, r := v.QuoRem(divisor, places)
	if r.Sign() > 0 {
		q = q.Add(decimal.New(1, -places))
	}
	return q
}

// ToCost scales a per-million subtotal into a final cost.
func ToCost(perMillionTotal decimal.Decimal) decimal.Decimal {
	return ScaleAndRoundUp(perMillionTotal, PerMillion, CostPlaces)
}

// ParsePrice parses a catalog price string. Empty, non-numeric and negative
// values report ok=false and a zero price.
func ParsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	price, err := decimal.NewFromString(s)
	if err != nil || price.IsNegative() {
		return decimal.Zero, false
	}

	return price, true
}

// Format renders v with exactly places decimal digits.
func Format(v decimal.Decimal, places int32) string {
	return v.StringFixed(places)
}
