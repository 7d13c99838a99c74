// Package pricing implements the discount/tax pipeline: per-line net-price
// discounts, tax on the discounted net, and a single global discount applied
// to the tax-inclusive figure. Item discounts always resolve before tax and
// the global discount always resolves after tax; swapping that order would
// change the tax base.
package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/money"
)

// CartLine is one priced entry of a cart. Combo-derived lines carry the combo
// they were expanded from and a percent discount equivalent to the combo's
// allocation; the pipeline does not treat them specially.
type CartLine struct {
	ProductID    uuid.UUID
	ComboID      *uuid.UUID
	Quantity     int
	UnitPriceNet decimal.Decimal
	TaxRate      decimal.Decimal
	Discount     Discount
}

// Validate rejects malformed lines before any math runs.
func (l CartLine) Validate() error {
	if l.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
	}
	if l.UnitPriceNet.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	if l.TaxRate.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "tax rate cannot be negative")
	}
	return l.Discount.Validate()
}

// LineTotals is the per-line result at full precision; the per-unit values
// are kept unrounded so aggregation does not compound rounding error.
type LineTotals struct {
	Line          CartLine
	DiscountedNet decimal.Decimal // per unit, after line discount
	UnitTax       decimal.Decimal // per unit
	LineNet       decimal.Decimal // DiscountedNet × qty
	LineTax       decimal.Decimal // UnitTax × qty
	LineGross     decimal.Decimal // LineNet + LineTax
}

// Totals is the aggregate pipeline result. Component figures stay at full
// precision; GrandTotal is the rounded amount surfaced to payment.
type Totals struct {
	Lines                []LineTotals
	ItemDiscountTotal    decimal.Decimal
	SubtotalNet          decimal.Decimal
	TotalTax             decimal.Decimal
	PreGlobalGross       decimal.Decimal
	GlobalDiscountAmount decimal.Decimal
	GrandTotal           decimal.Decimal
}

// ComputeTotals runs the pipeline over the cart. The global discount, when
// present, applies once to the tax-inclusive subtotal and is capped so the
// grand total never goes negative.
func ComputeTotals(lines []CartLine, global Discount) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one line")
	}
	if err := global.Validate(); err != nil {
		return Totals{}, err
	}

	totals := Totals{
		Lines:                make([]LineTotals, 0, len(lines)),
		ItemDiscountTotal:    decimal.Zero,
		SubtotalNet:          decimal.Zero,
		TotalTax:             decimal.Zero,
		GlobalDiscountAmount: decimal.Zero,
	}

	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return Totals{}, err
		}

		qty := decimal.NewFromInt(int64(line.Quantity))
		discountedNet := line.Discount.ApplyTo(line.UnitPriceNet)
		unitTax := money.PercentOf(discountedNet, line.TaxRate)

		lt := LineTotals{
			Line:          line,
			DiscountedNet: discountedNet,
			UnitTax:       unitTax,
			LineNet:       discountedNet.Mul(qty),
			LineTax:       unitTax.Mul(qty),
		}
		lt.LineGross = lt.LineNet.Add(lt.LineTax)

		totals.Lines = append(totals.Lines, lt)
		totals.SubtotalNet = totals.SubtotalNet.Add(lt.LineNet)
		totals.TotalTax = totals.TotalTax.Add(lt.LineTax)
		totals.ItemDiscountTotal = totals.ItemDiscountTotal.Add(
			line.UnitPriceNet.Sub(discountedNet).Mul(qty))
	}

	totals.PreGlobalGross = totals.SubtotalNet.Add(totals.TotalTax)
	totals.GlobalDiscountAmount = global.AmountOff(totals.PreGlobalGross)
	totals.GrandTotal = money.Round2(totals.PreGlobalGross.Sub(totals.GlobalDiscountAmount))

	return totals, nil
}
