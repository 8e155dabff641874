package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is the durable per-customer cart. One row per customer; guest carts
// live in Redis until the session is merged into a durable cart.
type Cart struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID uuid.UUID  `gorm:"column:customer_id;type:uuid;uniqueIndex;not null"`
	Lines      []CartLine `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// SubtotalCents sums line subtotals from the price snapshots captured at
// add time. Catalog price drift after add is not reconciled.
func (c *Cart) SubtotalCents() int {
	var total int
	for _, line := range c.Lines {
		total += line.SubtotalCents()
	}
	return total
}
