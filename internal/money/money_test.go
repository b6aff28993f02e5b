package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/money"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestScaleAndRoundUp(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		divisor  string
		places   int32
		expected string
	}{
		{
			name:     "exact division keeps value",
			value:    "1250000",
			divisor:  "1000000",
			places:   10,
			expected: "1.2500000000",
		},
		{
			name:     "tiny remainder rounds up one ulp",
			value:    "0.0000000000000001",
			divisor:  "1000000",
			places:   10,
			expected: "0.0000000001",
		},
		{
			name:     "remainder beyond places rounds up",
			value:    "1",
			divisor:  "3",
			places:   10,
			expected: "0.3333333334",
		},
		{
			name:     "zero stays zero",
			value:    "0",
			divisor:  "1000000",
			places:   10,
			expected: "0.0000000000",
		},
		{
			name:     "negative values round toward positive infinity",
			value:    "-1",
			divisor:  "3",
			places:   2,
			expected: "-0.33",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := money.ScaleAndRoundUp(dec(t, tt.value), dec(t, tt.divisor), tt.places)
			require.Equal(t, tt.expected, money.Format(got, tt.places))
		})
	}
}

func TestScaleAndRoundUp_NeverBelowExactQuotient(t *testing.T) {
	divisor := money.PerMillion
	for _, raw := range []string{"1", "7", "999999", "123456789.123456789", "0.31"} {
		v := dec(t, raw)
		got := money.ScaleAndRoundUp(v, divisor, money.CostPlaces)
		require.True(t, got.Mul(divisor).GreaterThanOrEqual(v), raw)
	}
}

func TestToCost(t *testing.T) {
	cost := money.ToCost(money.MultiplyInt(dec(t, "1.0"), 1000))
	require.Equal(t, "0.0010000000", money.Format(cost, money.CostPlaces))
}

func TestSumAndMultiply(t *testing.T) {
	total := money.Sum(
		money.MultiplyInt(dec(t, "0.1"), 3),
		money.Multiply(dec(t, "0.2"), dec(t, "1")),
	)
	require.True(t, total.Equal(dec(t, "0.5")), total.String())

	require.True(t, money.Sum().IsZero())
}

func TestClamp(t *testing.T) {
	lo := decimal.Zero
	hi := dec(t, "10")

	require.True(t, money.Clamp(dec(t, "-5"), lo, hi).Equal(lo))
	require.True(t, money.Clamp(dec(t, "15"), lo, hi).Equal(hi))
	require.True(t, money.Clamp(dec(t, "4"), lo, hi).Equal(dec(t, "4")))
	require.True(t, money.AtLeast(dec(t, "-1"), lo).Equal(lo))
	require.True(t, money.AtLeast(dec(t, "1000000000"), lo).Equal(dec(t, "1000000000")))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{name: "plain decimal", raw: "1.25", expected: "1.25", ok: true},
		{name: "integer", raw: "3", expected: "3", ok: true},
		{name: "surrounding spaces", raw: " 0.5 ", expected: "0.5", ok: true},
		{name: "empty", raw: "", expected: "0", ok: false},
		{name: "garbage", raw: "free", expected: "0", ok: false},
		{name: "negative", raw: "-1", expected: "0", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, ok := money.ParsePrice(tt.raw)
			require.Equal(t, tt.ok, ok)
			require.True(t, price.Equal(dec(t, tt.expected)), price.String())
		})
	}
}
