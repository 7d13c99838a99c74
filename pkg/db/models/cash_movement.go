package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/registra-pos/registra-backend/pkg/enums"
)

// CashMovement is an immutable entry in a register session's ledger. Amounts
// are stored unsigned with an explicit direction; corrections append inverse
// movements rather than editing history.
type CashMovement struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID       uuid.UUID               `gorm:"column:session_id;type:uuid;not null;index"`
	BranchID        uuid.UUID               `gorm:"column:branch_id;type:uuid;not null;index"`
	Type            enums.MovementType      `gorm:"column:type;type:varchar(16);not null"`
	Direction       enums.MovementDirection `gorm:"column:direction;type:varchar(8);not null"`
	Amount          decimal.Decimal         `gorm:"column:amount;type:decimal(12,2);not null"`
	PaymentMethodID *uuid.UUID              `gorm:"column:payment_method_id;type:uuid"`
	SaleID          *uuid.UUID              `gorm:"column:sale_id;type:uuid"`
	Description     string                  `gorm:"column:description;type:varchar(255);not null;default:''"`
	OccurredAt      time.Time               `gorm:"column:occurred_at;not null;index"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`

	PaymentMethod *PaymentMethod `gorm:"foreignKey:PaymentMethodID"`
}

// SignedAmount applies the movement direction to the stored unsigned amount.
func (m CashMovement) SignedAmount() decimal.Decimal {
	if m.Direction == enums.MovementDirectionOut {
		return m.Amount.Neg()
	}
	return m.Amount
}

// AffectsDrawer reports whether the movement changes physical drawer cash.
// Movements without a payment method (manual deposits/withdrawals) always do.
func (m CashMovement) AffectsDrawer() bool {
	if m.PaymentMethodID == nil {
		return true
	}
	if m.PaymentMethod == nil {
		return false
	}
	return m.PaymentMethod.AffectsCashDrawer
}
