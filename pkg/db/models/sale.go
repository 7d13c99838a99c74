package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/registra-pos/registra-backend/pkg/enums"
)

// Sale is a committed transaction: the cart snapshot, the computed totals and
// the payment breakdown, bound to the register session it was rung up on.
type Sale struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BranchID  uuid.UUID        `gorm:"column:branch_id;type:uuid;not null;index"`
	SessionID uuid.UUID        `gorm:"column:session_id;type:uuid;not null;index"`
	Status    enums.SaleStatus `gorm:"column:status;type:varchar(16);not null;default:'committed'"`

	ItemDiscountTotal    decimal.Decimal `gorm:"column:item_discount_total;type:decimal(12,2);not null"`
	SubtotalNet          decimal.Decimal `gorm:"column:subtotal_net;type:decimal(12,2);not null"`
	TotalTax             decimal.Decimal `gorm:"column:total_tax;type:decimal(12,2);not null"`
	GlobalDiscountAmount decimal.Decimal `gorm:"column:global_discount_amount;type:decimal(12,2);not null"`
	GrandTotal           decimal.Decimal `gorm:"column:grand_total;type:decimal(12,2);not null"`
	PaymentDiscountTotal decimal.Decimal `gorm:"column:payment_discount_total;type:decimal(12,2);not null"`
	FinalTotal           decimal.Decimal `gorm:"column:final_total;type:decimal(12,2);not null"`
	ChangeGiven          decimal.Decimal `gorm:"column:change_given;type:decimal(12,2);not null;default:0"`

	CommittedAt time.Time  `gorm:"column:committed_at;not null"`
	VoidedAt    *time.Time `gorm:"column:voided_at"`

	Lines    []SaleLine    `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Payments []SalePayment `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// SaleLine is one priced cart line at commit time. Combo-derived lines keep a
// reference to the combo they were expanded from.
type SaleLine struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID    uuid.UUID `gorm:"column:sale_id;type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	ComboID   *uuid.UUID `gorm:"column:combo_id;type:uuid"`

	Quantity        int             `gorm:"column:quantity;not null"`
	UnitPriceNet    decimal.Decimal `gorm:"column:unit_price_net;type:decimal(12,2);not null"`
	DiscountedNet   decimal.Decimal `gorm:"column:discounted_net;type:decimal(12,4);not null"`
	TaxRate         decimal.Decimal `gorm:"column:tax_rate;type:decimal(5,2);not null"`
	LineTax         decimal.Decimal `gorm:"column:line_tax;type:decimal(12,4);not null"`
	LineGross       decimal.Decimal `gorm:"column:line_gross;type:decimal(12,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:decimal(5,2);not null;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// SalePayment is one row of the persisted payment breakdown. For a change
// case the cash leg stores the adjusted amount, not the tendered one.
type SalePayment struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SaleID          uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;index"`
	PaymentMethodID uuid.UUID       `gorm:"column:payment_method_id;type:uuid;not null"`
	Amount          decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null"`
	TenderedAmount  decimal.Decimal `gorm:"column:tendered_amount;type:decimal(12,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`

	PaymentMethod *PaymentMethod `gorm:"foreignKey:PaymentMethodID"`
}
