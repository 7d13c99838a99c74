package enums

// SaleStatus tracks a persisted sale. Committed sales are immutable; voiding
// records an inverse movement instead of deleting anything.
type SaleStatus string

const (
	SaleStatusCommitted SaleStatus = "committed"
	SaleStatusVoided    SaleStatus = "voided"
)

var validSaleStatuses = []SaleStatus{
	SaleStatusCommitted,
	SaleStatusVoided,
}

// String implements fmt.Stringer.
func (s SaleStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleStatus.
func (s SaleStatus) IsValid() bool {
	for _, candidate := range validSaleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}
