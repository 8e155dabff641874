package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/enums"
	"github.com/minarilabs/storefront-backend/pkg/types"
)

// Shipment is created only when the order's payment settles successfully.
// Its status is not stored: it is derived from the most recent log entry.
type Shipment struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID            `gorm:"column:order_id;type:uuid;uniqueIndex;not null"`
	TrackingNumber   string               `gorm:"column:tracking_number;uniqueIndex;not null"`
	Method           enums.ShippingMethod `gorm:"column:method;not null"`
	DeliveryAddress  types.Address        `gorm:"column:delivery_address;type:jsonb;serializer:json"`
	EstimatedArrival time.Time            `gorm:"column:estimated_arrival;not null"`
	Logs             []ShipmentLogEntry   `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Shipment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// CurrentStatus reads the status off the last log entry. Logs are kept in
// append order; an empty log means the shipment was never initialized.
func (s *Shipment) CurrentStatus() enums.ShipmentStatus {
	if len(s.Logs) == 0 {
		return ""
	}
	return s.Logs[len(s.Logs)-1].Status
}
