package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the slice of the catalog record the engine consumes: a
// tax-exclusive unit price and the tax rate that applies to it. Catalog
// browsing and management live in the catalog collaborator.
type Product struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU          string          `gorm:"column:sku;type:varchar(64);not null;uniqueIndex"`
	Name         string          `gorm:"column:name;type:varchar(128);not null"`
	UnitPriceNet decimal.Decimal `gorm:"column:unit_price_net;type:decimal(12,2);not null"`
	TaxRate      decimal.Decimal `gorm:"column:tax_rate;type:decimal(5,2);not null;default:0"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
