package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is catalog state. Orders and carts reference products by id only and
// snapshot everything they need, so editing or deleting a product never
// rewrites order history.
type Product struct {
	ID                 uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name               string         `gorm:"column:name;not null"`
	SKU                string         `gorm:"column:sku;uniqueIndex;not null"`
	Category           string         `gorm:"column:category;not null;default:''"`
	PriceCents         int            `gorm:"column:price_cents;not null"`
	DiscountPriceCents *int           `gorm:"column:discount_price_cents"`
	IsActive           bool           `gorm:"column:is_active;not null;default:true"`
	Inventory          *InventoryItem `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt          time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
