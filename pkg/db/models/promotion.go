package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/enums"
)

// Promotion is a discount rule managed by the admin surface and read-only to
// checkout, except for the usage counter and the expiry sweep.
//
// DiscountValue is a percentage rate for percentage promotions and a cents
// amount for fixed-amount promotions. PerCustomerLimit is persisted but not
// enforced anywhere; only the global UsageLimit gates consumption.
type Promotion struct {
	ID                   uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code                 string             `gorm:"column:code;uniqueIndex;not null"`
	Name                 string             `gorm:"column:name;not null"`
	DiscountType         enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue        decimal.Decimal    `gorm:"column:discount_value;type:numeric;not null"`
	StartsAt             time.Time          `gorm:"column:starts_at;not null"`
	EndsAt               time.Time          `gorm:"column:ends_at;not null"`
	IsActive             bool               `gorm:"column:is_active;not null;default:true"`
	MinPurchaseCents     *int               `gorm:"column:min_purchase_cents"`
	MaxDiscountCents     *int               `gorm:"column:max_discount_cents"`
	ApplicableCategories pq.StringArray     `gorm:"column:applicable_categories;type:text[]"`
	UsageLimit           *int               `gorm:"column:usage_limit"`
	UsedCount            int                `gorm:"column:used_count;not null;default:0"`
	PerCustomerLimit     *int               `gorm:"column:per_customer_limit"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Promotion) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
