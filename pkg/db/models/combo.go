package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/registra-pos/registra-backend/pkg/enums"
)

// ComboDefinition is a bundled offer: a set of base items sold together with
// one discount applied to their combined base price.
type ComboDefinition struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string             `gorm:"column:name;type:varchar(128);not null"`
	DiscountKind  enums.DiscountKind `gorm:"column:discount_kind;type:varchar(16);not null"`
	DiscountValue decimal.Decimal    `gorm:"column:discount_value;type:decimal(12,2);not null"`
	IsActive      bool               `gorm:"column:is_active;not null;default:true"`

	Items []ComboItem `gorm:"foreignKey:ComboID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// ComboItem is one base item of a combo definition.
type ComboItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ComboID   uuid.UUID       `gorm:"column:combo_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
