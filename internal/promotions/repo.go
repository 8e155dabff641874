package promotions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/db/models"
)

// PromotionRepository exposes persistence for promotions.
type PromotionRepository interface {
	WithTx(tx *gorm.DB) PromotionRepository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error)
	FindByCode(ctx context.Context, code string) (*models.Promotion, error)
	ListActiveInWindow(ctx context.Context, now time.Time) ([]models.Promotion, error)
	Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error)
	ConsumeUsage(ctx context.Context, id uuid.UUID) (bool, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// Repository is the gorm-backed promotion repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a promotion repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) PromotionRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a promotion by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Promotion, error) {
	var promo models.Promotion
	if err := r.db.WithContext(ctx).First(&promo, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

// FindByCode loads a promotion by its unique code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Promotion, error) {
	var promo models.Promotion
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&promo).Error; err != nil {
		return nil, err
	}
	return &promo, nil
}

// ListActiveInWindow returns active promotions whose window contains now.
func (r *Repository) ListActiveInWindow(ctx context.Context, now time.Time) ([]models.Promotion, error) {
	var rows []models.Promotion
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND starts_at <= ? AND ends_at >= ?", true, now, now).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a promotion.
func (r *Repository) Create(ctx context.Context, promo *models.Promotion) (*models.Promotion, error) {
	if err := r.db.WithContext(ctx).Create(promo).Error; err != nil {
		return nil, err
	}
	return promo, nil
}

// ConsumeUsage increments the usage counter, guarded by the usage limit in the
// same statement. Returns false when the limit was already exhausted.
func (r *Repository) ConsumeUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("id = ? AND is_active = ? AND (usage_limit IS NULL OR used_count < usage_limit)", id, true).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeactivateExpired flips is_active off for promotions whose window has
// passed. Returns the number of rows changed.
func (r *Repository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Promotion{}).
		Where("is_active = ? AND ends_at < ?", true, now).
		Update("is_active", false)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
