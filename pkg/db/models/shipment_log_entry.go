package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/enums"
)

// ShipmentLogEntry is one step in a shipment's append-only tracking history.
type ShipmentLogEntry struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ShipmentID  uuid.UUID            `gorm:"column:shipment_id;type:uuid;not null;index"`
	Location    string               `gorm:"column:location;not null"`
	Description string               `gorm:"column:description;not null"`
	Status      enums.ShipmentStatus `gorm:"column:status;not null"`
	Timestamp   time.Time            `gorm:"column:timestamp;not null"`
}

func (e *ShipmentLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return nil
}
