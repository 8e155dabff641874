package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/enums"
	"github.com/minarilabs/storefront-backend/pkg/types"
)

// Order is the immutable snapshot produced from a cart at checkout. After
// creation only Status and the owned Payment/Shipment sub-state change; lines,
// amounts and the address copy are frozen. The order exclusively owns its
// lines, payment, shipment and audit log.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string            `gorm:"column:order_number;uniqueIndex;not null"`
	CustomerID      *uuid.UUID        `gorm:"column:customer_id;type:uuid"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	SubtotalCents   int               `gorm:"column:subtotal_cents;not null"`
	TaxCents        int               `gorm:"column:tax_cents;not null;default:0"`
	ShippingCents   int               `gorm:"column:shipping_cents;not null;default:0"`
	DiscountCents   int               `gorm:"column:discount_cents;not null;default:0"`
	TotalCents      int               `gorm:"column:total_cents;not null"`
	ShippingAddress types.Address     `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	PromotionID     *uuid.UUID        `gorm:"column:promotion_id;type:uuid"`
	PromoCode       *string           `gorm:"column:promo_code"`
	Lines           []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment         *Payment          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Shipment        *Shipment         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	AuditLog        []OrderAuditEntry `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
