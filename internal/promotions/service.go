package promotions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
)

// Service exposes promotion management and the discount evaluation used by
// checkout.
type Service interface {
	Create(ctx context.Context, input CreatePromotionInput) (*models.Promotion, error)
	GetByCode(ctx context.Context, code string) (*models.Promotion, error)
	EvaluateCode(ctx context.Context, code string, lines []EligibleLine) (Evaluation, error)
	BestDiscount(ctx context.Context, lines []EligibleLine) (*Evaluation, error)
	Consume(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	ExpireOutdated(ctx context.Context) (int64, error)
}

type service struct {
	repo PromotionRepository
	now  func() time.Time
}

// NewService builds a promotion service.
func NewService(repo PromotionRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotion repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// CreatePromotionInput captures the fields needed to register a promotion.
type CreatePromotionInput struct {
	Code                 string
	Name                 string
	DiscountType         enums.DiscountType
	DiscountValue        decimal.Decimal
	StartsAt             time.Time
	EndsAt               time.Time
	MinPurchaseCents     *int
	MaxDiscountCents     *int
	ApplicableCategories []string
	UsageLimit           *int
	PerCustomerLimit     *int
}

// Create validates and stores a promotion.
func (s *service) Create(ctx context.Context, input CreatePromotionInput) (*models.Promotion, error) {
	code := normalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion code is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion name is required")
	}
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if input.DiscountValue.IsNegative() || input.DiscountValue.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.DiscountValue.GreaterThan(percentDivisor) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if !input.EndsAt.After(input.StartsAt) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion window must end after it starts")
	}
	for _, ptr := range []*int{input.MinPurchaseCents, input.MaxDiscountCents, input.UsageLimit, input.PerCustomerLimit} {
		if ptr != nil && *ptr <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion limits must be positive")
		}
	}

	categories := make(pq.StringArray, 0, len(input.ApplicableCategories))
	for _, category := range input.ApplicableCategories {
		if normalized := normalizeCategory(category); normalized != "" {
			categories = append(categories, normalized)
		}
	}

	promo := &models.Promotion{
		Code:                 code,
		Name:                 strings.TrimSpace(input.Name),
		DiscountType:         input.DiscountType,
		DiscountValue:        input.DiscountValue,
		StartsAt:             input.StartsAt.UTC(),
		EndsAt:               input.EndsAt.UTC(),
		IsActive:             true,
		MinPurchaseCents:     input.MinPurchaseCents,
		MaxDiscountCents:     input.MaxDiscountCents,
		ApplicableCategories: categories,
		UsageLimit:           input.UsageLimit,
		PerCustomerLimit:     input.PerCustomerLimit,
	}

	created, err := s.repo.Create(ctx, promo)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promotion")
	}
	return created, nil
}

// GetByCode loads a promotion by code.
func (s *service) GetByCode(ctx context.Context, code string) (*models.Promotion, error) {
	normalized := normalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promotion code is required")
	}
	promo, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promotion not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promotion")
	}
	return promo, nil
}

// EvaluateCode applies a code to the lines. An unknown code is an error; a
// known but inapplicable code comes back ineligible with a reason.
func (s *service) EvaluateCode(ctx context.Context, code string, lines []EligibleLine) (Evaluation, error) {
	promo, err := s.GetByCode(ctx, code)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluate(promo, lines, s.now().UTC()), nil
}

// BestDiscount scans every promotion active right now and returns the one
// giving the largest discount, or nil when none applies.
func (s *service) BestDiscount(ctx context.Context, lines []EligibleLine) (*Evaluation, error) {
	now := s.now().UTC()
	candidates, err := s.repo.ListActiveInWindow(ctx, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promotions")
	}

	var best *Evaluation
	for i := range candidates {
		evaluation := Evaluate(&candidates[i], lines, now)
		if !evaluation.Eligible || evaluation.DiscountCents == 0 {
			continue
		}
		if best == nil || evaluation.DiscountCents > best.DiscountCents {
			copied := evaluation
			best = &copied
		}
	}
	return best, nil
}

// Consume burns one usage inside the caller's transaction. Returns false when
// the limit was exhausted between evaluation and consumption.
func (s *service) Consume(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "promotion id is required")
	}
	repo := s.repo.WithTx(tx)
	ok, err := repo.ConsumeUsage(ctx, id)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume promotion usage")
	}
	return ok, nil
}

// ExpireOutdated deactivates promotions whose window has passed.
func (s *service) ExpireOutdated(ctx context.Context) (int64, error) {
	count, err := s.repo.DeactivateExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate expired promotions")
	}
	return count, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
