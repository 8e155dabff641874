package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/enums"
)

// Notification is a best-effort record of an outbound customer notification.
// Delivery mechanics (email, push) live outside this core.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	Kind      enums.NotificationKind `gorm:"column:kind;not null"`
	OrderID   uuid.UUID              `gorm:"column:order_id;type:uuid;not null;index"`
	Recipient string                 `gorm:"column:recipient;not null"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
