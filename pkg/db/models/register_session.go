package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/registra-pos/registra-backend/pkg/enums"
)

// RegisterSession is one open/close cycle of a branch cash drawer. The
// opening balance is fixed at open; the row is mutated only once, at close,
// when the operator count and the derived reconciliation report are recorded.
type RegisterSession struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BranchID       uuid.UUID           `gorm:"column:branch_id;type:uuid;not null;index"`
	OpeningBalance decimal.Decimal     `gorm:"column:opening_balance;type:decimal(12,2);not null"`
	Status         enums.SessionStatus `gorm:"column:status;type:varchar(16);not null;default:'open'"`
	OpenedAt       time.Time           `gorm:"column:opened_at;not null"`

	// Close-time fields; all nil while the session is open.
	ClosingBalance  *decimal.Decimal             `gorm:"column:closing_balance;type:decimal(12,2)"`
	ExpectedBalance *decimal.Decimal             `gorm:"column:expected_balance;type:decimal(12,2)"`
	Difference      *decimal.Decimal             `gorm:"column:difference;type:decimal(12,2)"`
	DifferencePct   *decimal.Decimal             `gorm:"column:difference_pct;type:decimal(7,2)"`
	Classification  *enums.BalanceClassification `gorm:"column:classification;type:varchar(16)"`
	ClosedAt        *time.Time                   `gorm:"column:closed_at"`

	Movements []CashMovement `gorm:"foreignKey:SessionID"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// IsOpen reports whether the session still accepts movements.
func (s RegisterSession) IsOpen() bool {
	return s.Status == enums.SessionStatusOpen
}
