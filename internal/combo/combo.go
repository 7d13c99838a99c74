// Package combo expands bundled offers into priced, individually discounted
// cart lines. The combo discount is allocated proportionally over the
// combined base price and re-expressed per line as an equivalent percent, so
// downstream pricing treats combo lines exactly like manually discounted ones.
package combo

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/registra-pos/registra-backend/internal/pricing"
	"github.com/registra-pos/registra-backend/pkg/enums"
	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/money"
)

// Item is one constituent of a combo: either a base item from the definition
// or a caller-supplied extra selection. TaxRate comes from the catalog record
// of the product and is carried through to the emitted line.
type Item struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
	TaxRate   decimal.Decimal
}

// Definition is a bundled offer with one discount over the combined base.
type Definition struct {
	ID       uuid.UUID
	Items    []Item
	Discount pricing.Discount
}

// Expand decomposes comboQty purchases of the combo (plus any extra
// selections) into standalone cart lines. Duplicate product refs are merged
// by summing quantity and price before the discount factor is derived.
func Expand(def Definition, extras []Item, comboQty int) ([]pricing.CartLine, error) {
	if comboQty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "combo quantity must be positive")
	}
	if len(def.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "combo has no items")
	}
	if err := def.Discount.Validate(); err != nil {
		return nil, err
	}

	merged, err := mergeItems(append(append([]Item{}, def.Items...), extras...))
	if err != nil {
		return nil, err
	}

	totalBase := decimal.Zero
	for _, item := range merged {
		totalBase = totalBase.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	// A zero-priced combo gets no discount allocation; the factor is defined
	// as zero rather than dividing by zero.
	factor := decimal.Zero
	if totalBase.IsPositive() {
		discountAmount := def.Discount.AmountOff(totalBase)
		factor = discountAmount.Div(totalBase)
	}

	comboID := def.ID
	lines := make([]pricing.CartLine, 0, len(merged))
	for _, item := range merged {
		discountedUnit := item.UnitPrice.Mul(decimal.NewFromInt(1).Sub(factor))

		// Re-express the allocation as a percent so the pricing pipeline
		// sees an ordinary line discount in [0,100].
		percent := decimal.Zero
		if item.UnitPrice.IsPositive() {
			percent = money.RatioAsPercent(item.UnitPrice.Sub(discountedUnit).Div(item.UnitPrice))
		}

		discount := pricing.NoDiscount()
		if percent.IsPositive() {
			discount = pricing.PercentDiscount(percent)
		}

		lines = append(lines, pricing.CartLine{
			ProductID:    item.ProductID,
			ComboID:      &comboID,
			Quantity:     item.Quantity * comboQty,
			UnitPriceNet: item.UnitPrice,
			TaxRate:      item.TaxRate,
			Discount:     discount,
		})
	}
	return lines, nil
}

// mergeItems collapses duplicate product refs into one entry, summing the
// quantities. Price and tax rate must agree across duplicates.
func mergeItems(items []Item) ([]Item, error) {
	merged := make([]Item, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))

	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "combo item quantity must be positive")
		}
		if item.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "combo item price cannot be negative")
		}
		if item.TaxRate.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "combo item tax rate cannot be negative")
		}

		if at, ok := index[item.ProductID]; ok {
			if !merged[at].UnitPrice.Equal(item.UnitPrice) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "conflicting prices for combo product")
			}
			merged[at].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

// FromModel converts a stored combo definition to the expansion input.
func FromModel(id uuid.UUID, kind enums.DiscountKind, value decimal.Decimal, items []Item) Definition {
	return Definition{
		ID:       id,
		Items:    items,
		Discount: pricing.Discount{Kind: kind, Value: value},
	}
}
