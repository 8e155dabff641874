package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartLine is one product in a cart. At most one line exists per product per
// cart; adding the same product again increments Quantity and leaves the
// price snapshot untouched.
type CartLine struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID         uuid.UUID `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:idx_cart_product"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_cart_product"`
	ProductName    string    `gorm:"column:product_name;not null"`
	ProductSKU     string    `gorm:"column:product_sku;not null"`
	Category       string    `gorm:"column:category;not null;default:''"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Quantity       int       `gorm:"column:quantity;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *CartLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// SubtotalCents is the line's contribution to the cart subtotal.
func (l CartLine) SubtotalCents() int {
	return l.UnitPriceCents * l.Quantity
}
