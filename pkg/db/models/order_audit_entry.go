package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/enums"
)

// OrderAuditEntry records one status transition. The log is append-only and
// never edited: replaying it from pending in timestamp order reproduces the
// order's current status.
type OrderAuditEntry struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	OldStatus enums.OrderStatus `gorm:"column:old_status;not null"`
	NewStatus enums.OrderStatus `gorm:"column:new_status;not null"`
	Actor     string            `gorm:"column:actor;not null"`
	Note      string            `gorm:"column:note;not null;default:''"`
	Timestamp time.Time         `gorm:"column:timestamp;not null"`
}

func (e *OrderAuditEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return nil
}
