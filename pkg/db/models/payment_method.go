package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is a tender type from the payment-method registry. Methods
// with AffectsCashDrawer set physically change the drawer contents; all other
// tenders (card, transfer, store credit) must settle exactly.
type PaymentMethod struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string          `gorm:"column:name;type:varchar(64);not null;uniqueIndex"`
	DiscountPercent   decimal.Decimal `gorm:"column:discount_percent;type:decimal(5,2);not null;default:0"`
	AffectsCashDrawer bool            `gorm:"column:affects_cash_drawer;not null;default:false"`
	IsActive          bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
