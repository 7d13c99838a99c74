package enums

import "fmt"

// MovementDirection marks a cash movement as an inflow or outflow.
type MovementDirection string

const (
	MovementDirectionIn  MovementDirection = "in"
	MovementDirectionOut MovementDirection = "out"
)

var validMovementDirections = []MovementDirection{
	MovementDirectionIn,
	MovementDirectionOut,
}

// String implements fmt.Stringer.
func (d MovementDirection) String() string {
	return string(d)
}

// IsValid reports whether the value is a known MovementDirection.
func (d MovementDirection) IsValid() bool {
	for _, candidate := range validMovementDirections {
		if candidate == d {
			return true
		}
	}
	return false
}

// Sign returns +1 for inflows and -1 for outflows.
func (d MovementDirection) Sign() int {
	if d == MovementDirectionOut {
		return -1
	}
	return 1
}

// ParseMovementDirection converts raw input into a MovementDirection.
func ParseMovementDirection(value string) (MovementDirection, error) {
	for _, candidate := range validMovementDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement direction %q", value)
}
