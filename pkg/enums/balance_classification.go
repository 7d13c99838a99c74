package enums

// BalanceClassification is the outcome of comparing a counted drawer amount
// against the expected cash balance at close.
type BalanceClassification string

const (
	BalanceBalanced BalanceClassification = "balanced"
	BalanceSurplus  BalanceClassification = "surplus"
	BalanceShortage BalanceClassification = "shortage"
)

// String implements fmt.Stringer.
func (b BalanceClassification) String() string {
	return string(b)
}

// IsValid reports whether the value is a known BalanceClassification.
func (b BalanceClassification) IsValid() bool {
	switch b {
	case BalanceBalanced, BalanceSurplus, BalanceShortage:
		return true
	}
	return false
}
