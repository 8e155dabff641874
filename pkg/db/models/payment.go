package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/enums"
)

// Payment is the one-shot settlement record owned 1:1 by an order.
// TransactionID is assigned only when settlement succeeds. The refund fields
// are structural placeholders; no refund workflow writes them yet.
type Payment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID           `gorm:"column:order_id;type:uuid;uniqueIndex;not null"`
	Method           enums.PaymentMethod `gorm:"column:method;not null"`
	Status           enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	AmountCents      int                 `gorm:"column:amount_cents;not null"`
	TransactionID    *string             `gorm:"column:transaction_id"`
	SettledAt        *time.Time          `gorm:"column:settled_at"`
	RefundedAt       *time.Time          `gorm:"column:refunded_at"`
	RefundAmountCents *int               `gorm:"column:refund_amount_cents"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
