package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"10.004", "10"},
		{"10.005", "10.01"},
		{"10.015", "10.02"},
		{"-10.005", "-10.01"},
		{"103.455", "103.46"},
	}
	for _, tc := range cases {
		assert.True(t, Round2(dec(tc.in)).Equal(dec(tc.want)), "Round2(%s) = %s, want %s", tc.in, Round2(dec(tc.in)), tc.want)
	}
}

func TestPercentOfKeepsPrecision(t *testing.T) {
	got := PercentOf(dec("33.33"), dec("3"))
	assert.True(t, got.Equal(dec("0.9999")), "got %s", got)
}

func TestRatioAsPercent(t *testing.T) {
	assert.True(t, RatioAsPercent(dec("0.1")).Equal(dec("10")))
}

func TestClampNonNegative(t *testing.T) {
	assert.True(t, ClampNonNegative(dec("-5")).IsZero())
	assert.True(t, ClampNonNegative(dec("5")).Equal(dec("5")))
}

func TestMin(t *testing.T) {
	assert.True(t, Min(dec("2"), dec("3")).Equal(dec("2")))
	assert.True(t, Min(dec("3"), dec("2")).Equal(dec("2")))
}
