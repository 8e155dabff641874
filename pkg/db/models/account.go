package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/enums"
	"github.com/minarilabs/storefront-backend/pkg/types"
)

// Account is a storefront identity: a single value with a role tag instead of
// a customer/admin class hierarchy. Only the role distinguishes them here;
// authorization lives outside this core.
type Account struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Email          string            `gorm:"column:email;uniqueIndex;not null"`
	Name           string            `gorm:"column:name;not null"`
	Role           enums.AccountRole `gorm:"column:role;not null;default:'customer'"`
	DefaultAddress *types.Address    `gorm:"column:default_address;type:jsonb;serializer:json"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
