package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/internal/promotions"
	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	"github.com/minarilabs/storefront-backend/pkg/logger"
)

func TestPromotionExpiryJobDeactivatesClosedWindows(t *testing.T) {
	t.Parallel()

	dsn := "file:promoexpiry_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Promotion{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	promoSvc, err := promotions.NewService(promotions.NewRepository(db))
	if err != nil {
		t.Fatalf("promotions service: %v", err)
	}

	seed := func(code string, endsAt time.Time) *models.Promotion {
		t.Helper()
		promo, err := promoSvc.Create(ctx, promotions.CreatePromotionInput{
			Code:          code,
			Name:          code,
			DiscountType:  enums.DiscountTypePercentage,
			DiscountValue: decimal.NewFromInt(10),
			StartsAt:      endsAt.Add(-48 * time.Hour),
			EndsAt:        endsAt,
		})
		if err != nil {
			t.Fatalf("seed promotion %s: %v", code, err)
		}
		return promo
	}
	expired := seed("oldsale", time.Now().Add(-time.Hour))
	live := seed("livesale", time.Now().Add(24*time.Hour))

	job, err := NewPromotionExpiryJob(PromotionExpiryJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Promotions: promoSvc,
	})
	if err != nil {
		t.Fatalf("promotion expiry job: %v", err)
	}
	if err := job.Run(ctx); err != nil {
		t.Fatalf("run job: %v", err)
	}

	var reloaded models.Promotion
	if err := db.First(&reloaded, "id = ?", expired.ID).Error; err != nil {
		t.Fatalf("reload expired: %v", err)
	}
	if reloaded.IsActive {
		t.Fatal("expired promotion still active")
	}
	var reloadedLive models.Promotion
	if err := db.First(&reloadedLive, "id = ?", live.ID).Error; err != nil {
		t.Fatalf("reload live: %v", err)
	}
	if !reloadedLive.IsActive {
		t.Fatal("live promotion deactivated")
	}
}
