package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/internal/notifications"
	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	"github.com/minarilabs/storefront-backend/pkg/logger"
)

func TestNotificationCleanupJobPrunesOldRows(t *testing.T) {
	t.Parallel()

	dsn := "file:notifcleanup_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	seed := func(age time.Duration) {
		t.Helper()
		row := models.Notification{
			Kind:      enums.NotificationOrderCreated,
			OrderID:   uuid.New(),
			Recipient: "cleanup@example.com",
			CreatedAt: time.Now().UTC().Add(-age),
		}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}
	seed(40 * 24 * time.Hour)
	seed(31 * 24 * time.Hour)
	seed(2 * 24 * time.Hour)

	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Repository: notifications.NewRepository(db),
	})
	if err != nil {
		t.Fatalf("notification cleanup job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}

	var remaining int64
	db.Model(&models.Notification{}).Count(&remaining)
	if remaining != 1 {
		t.Fatalf("expected 1 notification left, got %d", remaining)
	}
}
