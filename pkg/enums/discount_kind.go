package enums

import "fmt"

// DiscountKind describes how a discount value is interpreted.
type DiscountKind string

const (
	DiscountKindPercent DiscountKind = "percent"
	DiscountKindAmount  DiscountKind = "amount"
)

var validDiscountKinds = []DiscountKind{
	DiscountKindPercent,
	DiscountKindAmount,
}

// String implements fmt.Stringer.
func (k DiscountKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known DiscountKind.
func (k DiscountKind) IsValid() bool {
	for _, candidate := range validDiscountKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseDiscountKind converts raw input into a DiscountKind. The legacy
// "fixed_amount" spelling used by combo definitions maps to DiscountKindAmount.
func ParseDiscountKind(value string) (DiscountKind, error) {
	if value == "fixed_amount" {
		return DiscountKindAmount, nil
	}
	for _, candidate := range validDiscountKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount kind %q", value)
}
