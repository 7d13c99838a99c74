package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/money"
)

func line(qty int, price, taxRate string, d Discount) CartLine {
	return CartLine{
		ProductID:    uuid.New(),
		Quantity:     qty,
		UnitPriceNet: dec(price),
		TaxRate:      dec(taxRate),
		Discount:     d,
	}
}

// The worked example: unit 100 net, 21% tax, 10% item discount, then a 5%
// global discount on the single-line cart. The global amount stays unrounded
// (5.445) and only the grand total rounds, to 103.46.
func TestComputeTotals_RoundingPoint(t *testing.T) {
	totals, err := ComputeTotals(
		[]CartLine{line(1, "100", "21", PercentDiscount(dec("10")))},
		PercentDiscount(dec("5")),
	)
	require.NoError(t, err)

	lt := totals.Lines[0]
	assert.True(t, lt.DiscountedNet.Equal(dec("90")), "discountedNet = %s", lt.DiscountedNet)
	assert.True(t, lt.LineTax.Equal(dec("18.9")), "lineTax = %s", lt.LineTax)
	assert.True(t, lt.LineGross.Equal(dec("108.9")), "lineGross = %s", lt.LineGross)

	assert.True(t, totals.GlobalDiscountAmount.Equal(dec("5.445")),
		"globalDiscountAmount = %s", totals.GlobalDiscountAmount)
	assert.True(t, totals.GrandTotal.Equal(dec("103.46")),
		"grandTotal = %s", totals.GrandTotal)
}

func TestComputeTotals_Aggregation(t *testing.T) {
	totals, err := ComputeTotals([]CartLine{
		line(2, "50", "21", NoDiscount()),
		line(3, "10", "10.5", AmountDiscount(dec("2"))),
	}, NoDiscount())
	require.NoError(t, err)

	// 2×50 + 3×8 = 124
	assert.True(t, totals.SubtotalNet.Equal(dec("124")), "subtotalNet = %s", totals.SubtotalNet)
	// 2×10.5 + 3×0.84 = 23.52
	assert.True(t, totals.TotalTax.Equal(dec("23.52")), "totalTax = %s", totals.TotalTax)
	// 3×2 = 6
	assert.True(t, totals.ItemDiscountTotal.Equal(dec("6")), "itemDiscountTotal = %s", totals.ItemDiscountTotal)
	assert.True(t, totals.GlobalDiscountAmount.IsZero())
	assert.True(t, totals.GrandTotal.Equal(dec("147.52")), "grandTotal = %s", totals.GrandTotal)
}

// grandTotal == round2(subtotalNet + totalTax − globalDiscountAmount) must
// hold for every cart, and the global amount never exceeds the gross total.
func TestComputeTotals_Identities(t *testing.T) {
	carts := [][]CartLine{
		{line(1, "0.01", "21", NoDiscount())},
		{line(7, "19.99", "10.5", PercentDiscount(dec("33.33")))},
		{
			line(2, "100", "21", AmountDiscount(dec("250"))),
			line(1, "5", "0", NoDiscount()),
		},
	}
	globals := []Discount{
		NoDiscount(),
		PercentDiscount(dec("100")),
		AmountDiscount(dec("99999")),
		AmountDiscount(dec("0.01")),
	}

	for _, cart := range carts {
		for _, g := range globals {
			totals, err := ComputeTotals(cart, g)
			require.NoError(t, err)

			recomputed := money.Round2(totals.SubtotalNet.Add(totals.TotalTax).Sub(totals.GlobalDiscountAmount))
			assert.True(t, totals.GrandTotal.Equal(recomputed),
				"grand %s != recomputed %s", totals.GrandTotal, recomputed)

			assert.True(t, totals.GlobalDiscountAmount.LessThanOrEqual(totals.PreGlobalGross),
				"global discount exceeds gross")
			assert.False(t, totals.GrandTotal.IsNegative(), "negative grand total")

			for _, lt := range totals.Lines {
				assert.False(t, lt.DiscountedNet.IsNegative())
				assert.True(t, lt.DiscountedNet.LessThanOrEqual(lt.Line.UnitPriceNet))
			}
		}
	}
}

// Items discount the net before tax; the global discount sees the taxed
// figure. Applying the same 10% on the other side of the tax boundary would
// yield a different tax total, which is what this pins down.
func TestComputeTotals_OrderingIsLoadBearing(t *testing.T) {
	withItemDiscount, err := ComputeTotals(
		[]CartLine{line(1, "100", "21", PercentDiscount(dec("10")))}, NoDiscount())
	require.NoError(t, err)

	withGlobalDiscount, err := ComputeTotals(
		[]CartLine{line(1, "100", "21", NoDiscount())}, PercentDiscount(dec("10")))
	require.NoError(t, err)

	// Item discount shrinks the tax base: tax 18.90 vs 21.00.
	assert.True(t, withItemDiscount.TotalTax.Equal(dec("18.9")))
	assert.True(t, withGlobalDiscount.TotalTax.Equal(dec("21")))
	// Grand totals coincide for a flat percent, the components must not.
	assert.False(t, withItemDiscount.TotalTax.Equal(withGlobalDiscount.TotalTax))
}

func TestComputeTotals_ManyLinesNoCompoundedRounding(t *testing.T) {
	// 0.33 net with 21% tax has a repeating per-line gross; 100 lines must
	// aggregate at full precision before the single final rounding.
	lines := make([]CartLine, 0, 100)
	for i := 0; i < 100; i++ {
		lines = append(lines, line(1, "0.33", "21", NoDiscount()))
	}
	totals, err := ComputeTotals(lines, NoDiscount())
	require.NoError(t, err)

	// 100 × 0.33 × 1.21 = 39.93 exactly.
	assert.True(t, totals.GrandTotal.Equal(dec("39.93")), "grandTotal = %s", totals.GrandTotal)
}

func TestComputeTotals_Validation(t *testing.T) {
	cases := map[string]struct {
		lines  []CartLine
		global Discount
	}{
		"empty cart":        {nil, NoDiscount()},
		"zero quantity":     {[]CartLine{line(0, "10", "0", NoDiscount())}, NoDiscount()},
		"negative quantity": {[]CartLine{line(-2, "10", "0", NoDiscount())}, NoDiscount()},
		"negative price":    {[]CartLine{line(1, "-10", "0", NoDiscount())}, NoDiscount()},
		"negative tax rate": {[]CartLine{line(1, "10", "-1", NoDiscount())}, NoDiscount()},
		"bad line discount": {[]CartLine{line(1, "10", "0", PercentDiscount(dec("101")))}, NoDiscount()},
		"bad global":        {[]CartLine{line(1, "10", "0", NoDiscount())}, AmountDiscount(dec("-5"))},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ComputeTotals(tc.lines, tc.global)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}
