package enums

import "fmt"

// MovementType identifies what produced a cash movement. Ledger entries are
// immutable, so voids create inverse movements rather than editing history.
type MovementType string

const (
	MovementTypeSale       MovementType = "sale"
	MovementTypeDeposit    MovementType = "deposit"
	MovementTypeWithdrawal MovementType = "withdrawal"
	MovementTypeVoid       MovementType = "void"
)

var validMovementTypes = []MovementType{
	MovementTypeSale,
	MovementTypeDeposit,
	MovementTypeWithdrawal,
	MovementTypeVoid,
}

// String implements fmt.Stringer.
func (t MovementType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known MovementType.
func (t MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
