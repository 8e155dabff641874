package cron

import (
	"context"
	"fmt"

	"github.com/minarilabs/storefront-backend/pkg/logger"
)

type promotionExpirer interface {
	ExpireOutdated(ctx context.Context) (int64, error)
}

// PromotionExpiryJobParams configure the promotion expiry job.
type PromotionExpiryJobParams struct {
	Logger     *logger.Logger
	Promotions promotionExpirer
}

// NewPromotionExpiryJob builds the cron job that deactivates promotions whose
// window has closed.
func NewPromotionExpiryJob(params PromotionExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Promotions == nil {
		return nil, fmt.Errorf("promotions service required")
	}
	return &promotionExpiryJob{
		logg:   params.Logger,
		promos: params.Promotions,
	}, nil
}

type promotionExpiryJob struct {
	logg   *logger.Logger
	promos promotionExpirer
}

func (j *promotionExpiryJob) Name() string { return "promotion-expiry" }

func (j *promotionExpiryJob) Run(ctx context.Context) error {
	deactivated, err := j.promos.ExpireOutdated(ctx)
	if err != nil {
		return fmt.Errorf("promotion expiry: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"deactivated": deactivated})
	j.logg.Info(logCtx, "promotion expiry complete")
	return nil
}
