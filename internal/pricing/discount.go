package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/registra-pos/registra-backend/pkg/enums"
	pkgerrors "github.com/registra-pos/registra-backend/pkg/errors"
	"github.com/registra-pos/registra-backend/pkg/money"
)

// Discount is a closed tagged value: none (zero value), percent, or amount.
// Combo-derived lines and manually discounted lines both carry one of these,
// so the pipeline has a single downstream code path.
type Discount struct {
	Kind  enums.DiscountKind
	Value decimal.Decimal
}

// NoDiscount returns the absent discount.
func NoDiscount() Discount {
	return Discount{}
}

// PercentDiscount builds a percentage discount.
func PercentDiscount(value decimal.Decimal) Discount {
	return Discount{Kind: enums.DiscountKindPercent, Value: value}
}

// AmountDiscount builds a fixed-amount discount.
func AmountDiscount(value decimal.Decimal) Discount {
	return Discount{Kind: enums.DiscountKindAmount, Value: value}
}

// IsZero reports whether no discount is present.
func (d Discount) IsZero() bool {
	return d.Kind == ""
}

// Validate rejects malformed discounts: unknown kinds, negative values, and
// percentages above 100.
func (d Discount) Validate() error {
	if d.IsZero() {
		return nil
	}
	if !d.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown discount kind")
	}
	if d.Value.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value cannot be negative")
	}
	if d.Kind == enums.DiscountKindPercent && d.Value.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "percent discount cannot exceed 100")
	}
	return nil
}

// ApplyTo returns base after the discount, at full precision. Amount
// discounts are capped at base and the result never goes below zero.
func (d Discount) ApplyTo(base decimal.Decimal) decimal.Decimal {
	switch d.Kind {
	case enums.DiscountKindPercent:
		return money.ClampNonNegative(base.Sub(money.PercentOf(base, d.Value)))
	case enums.DiscountKindAmount:
		return money.ClampNonNegative(base.Sub(money.Min(d.Value, base)))
	default:
		return base
	}
}

// AmountOff returns how much the discount removes from base, capped at base.
func (d Discount) AmountOff(base decimal.Decimal) decimal.Decimal {
	return base.Sub(d.ApplyTo(base))
}
