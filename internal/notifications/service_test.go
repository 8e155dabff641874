package notifications

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
	"github.com/minarilabs/storefront-backend/pkg/logger"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	dsn := "file:notifications_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db), logger.New(logger.Options{ServiceName: "notifications-test"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestNotifyAndList(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	orderID := uuid.New()

	if err := svc.Notify(ctx, enums.NotificationOrderCreated, orderID, "dewi@example.com"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := svc.Notify(ctx, enums.NotificationShipmentUpdate, orderID, "dewi@example.com"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	rows, err := svc.ListForOrder(ctx, orderID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(rows))
	}
	if rows[0].Kind != enums.NotificationOrderCreated {
		t.Fatalf("unexpected order: %+v", rows)
	}
}

func TestNotifyValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	err := svc.Notify(ctx, enums.NotificationOrderCreated, uuid.Nil, "a@example.com")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	err = svc.Notify(ctx, enums.NotificationOrderCreated, uuid.New(), " ")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
