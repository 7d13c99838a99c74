package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDiscountApplyTo(t *testing.T) {
	tests := []struct {
		name     string
		discount Discount
		base     string
		want     string
	}{
		{"none leaves base untouched", NoDiscount(), "100", "100"},
		{"ten percent", PercentDiscount(dec("10")), "100", "90"},
		{"hundred percent", PercentDiscount(dec("100")), "55.50", "0"},
		{"amount", AmountDiscount(dec("30")), "100", "70"},
		{"amount capped at base", AmountDiscount(dec("150")), "100", "0"},
		{"amount on zero base", AmountDiscount(dec("10")), "0", "0"},
		{"fractional percent keeps precision", PercentDiscount(dec("12.5")), "80", "70"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.discount.ApplyTo(dec(tc.base))
			assert.True(t, got.Equal(dec(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestDiscountApplyToNeverNegative(t *testing.T) {
	bases := []string{"0", "0.01", "1", "99.99", "1000"}
	discounts := []Discount{
		PercentDiscount(dec("100")),
		AmountDiscount(dec("100000")),
		AmountDiscount(dec("0.01")),
	}
	for _, b := range bases {
		for _, d := range discounts {
			got := d.ApplyTo(dec(b))
			require.False(t, got.IsNegative(), "discount %v on %s produced %s", d, b, got)
			require.True(t, got.LessThanOrEqual(dec(b)))
		}
	}
}

func TestDiscountValidate(t *testing.T) {
	require.NoError(t, NoDiscount().Validate())
	require.NoError(t, PercentDiscount(dec("0")).Validate())
	require.NoError(t, PercentDiscount(dec("100")).Validate())
	require.NoError(t, AmountDiscount(dec("1000000")).Validate())

	for name, d := range map[string]Discount{
		"negative percent": PercentDiscount(dec("-1")),
		"percent over 100": PercentDiscount(dec("100.01")),
		"negative amount":  AmountDiscount(dec("-0.01")),
		"unknown kind":     {Kind: "bogus", Value: dec("1")},
	} {
		t.Run(name, func(t *testing.T) {
			err := d.Validate()
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestAmountOffMatchesApplyTo(t *testing.T) {
	base := dec("123.45")
	d := PercentDiscount(dec("21"))
	off := d.AmountOff(base)
	assert.True(t, base.Sub(off).Equal(d.ApplyTo(base)))
}
