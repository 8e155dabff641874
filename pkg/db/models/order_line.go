package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderLine freezes the product name, sku and prices at order-assembly time.
// The product reference is weak: a later product edit or delete never touches
// these snapshots.
type OrderLine struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ProductID          *uuid.UUID `gorm:"column:product_id;type:uuid"`
	ProductName        string     `gorm:"column:product_name;not null"`
	ProductSKU         string     `gorm:"column:product_sku;not null"`
	UnitPriceCents     int        `gorm:"column:unit_price_cents;not null"`
	DiscountPriceCents *int       `gorm:"column:discount_price_cents"`
	Quantity           int        `gorm:"column:quantity;not null"`
	LineTotalCents     int        `gorm:"column:line_total_cents;not null"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
