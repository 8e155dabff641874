package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/internal/accounts"
	"github.com/minarilabs/storefront-backend/internal/notifications"
	"github.com/minarilabs/storefront-backend/internal/orders"
	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	"github.com/minarilabs/storefront-backend/pkg/logger"
)

type jobTxRunner struct {
	db *gorm.DB
}

func (r *jobTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type ttlJobEnv struct {
	db       *gorm.DB
	job      Job
	accounts accounts.Service
	notifier notifications.Service
	now      time.Time
}

func newTTLJobEnv(t *testing.T) *ttlJobEnv {
	t.Helper()
	dsn := "file:orderttl_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Product{}, &models.InventoryItem{}, &models.Account{},
		&models.Order{}, &models.OrderLine{}, &models.Payment{},
		&models.OrderAuditEntry{}, &models.Notification{},
		&models.Shipment{}, &models.ShipmentLogEntry{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "cron-test"})
	accountsSvc, err := accounts.NewService(accounts.NewRepository(db))
	if err != nil {
		t.Fatalf("accounts service: %v", err)
	}
	notifySvc, err := notifications.NewService(notifications.NewRepository(db), logg)
	if err != nil {
		t.Fatalf("notifications service: %v", err)
	}
	repo := orders.NewRepository(db)

	job, err := NewOrderTTLJob(OrderTTLJobParams{
		Logger:        logg,
		DB:            &jobTxRunner{db: db},
		PendingReader: repo,
		Orders:        repo,
		Accounts:      accountsSvc,
		Notifier:      notifySvc,
	})
	if err != nil {
		t.Fatalf("order ttl job: %v", err)
	}
	now := time.Now().UTC()
	job.(*orderTTLJob).now = func() time.Time { return now }

	return &ttlJobEnv{db: db, job: job, accounts: accountsSvc, notifier: notifySvc, now: now}
}

func (e *ttlJobEnv) seedAccount(t *testing.T, email string) *models.Account {
	t.Helper()
	account, err := e.accounts.Register(context.Background(), accounts.RegisterInput{
		Email: email,
		Name:  "Jun Park",
	})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return account
}

func (e *ttlJobEnv) seedInventory(t *testing.T, available, reserved int) uuid.UUID {
	t.Helper()
	product := models.Product{
		Name: "Test Product " + uuid.NewString()[:8], SKU: "SKU-" + uuid.NewString()[:8],
		PriceCents: 1000, IsActive: true,
	}
	if err := e.db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	item := models.InventoryItem{ProductID: product.ID, AvailableQty: available, ReservedQty: reserved}
	if err := e.db.Create(&item).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return product.ID
}

func (e *ttlJobEnv) seedOrder(t *testing.T, customerID, productID uuid.UUID, status enums.OrderStatus, age time.Duration, qty int) *models.Order {
	t.Helper()
	order := models.Order{
		OrderNumber:   "ORD-" + uuid.NewString()[:12],
		CustomerID:    &customerID,
		Status:        status,
		SubtotalCents: qty * 1000,
		TotalCents:    qty * 1000,
		Lines: []models.OrderLine{{
			ProductID: &productID, ProductName: "Test Product", ProductSKU: "SKU-TEST",
			UnitPriceCents: 1000, Quantity: qty, LineTotalCents: qty * 1000,
		}},
		CreatedAt: e.now.Add(-age),
	}
	if err := e.db.Create(&order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return &order
}

func TestOrderTTLJobExpiresStaleOrders(t *testing.T) {
	t.Parallel()

	env := newTTLJobEnv(t)
	ctx := context.Background()
	account := env.seedAccount(t, "ttl@example.com")
	productID := env.seedInventory(t, 8, 2)
	stale := env.seedOrder(t, account.ID, productID, enums.OrderStatusPending, 4*24*time.Hour, 2)

	if err := env.job.Run(ctx); err != nil {
		t.Fatalf("run job: %v", err)
	}

	var reloaded models.Order
	if err := env.db.Preload("AuditLog").First(&reloaded, "id = ?", stale.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", reloaded.Status)
	}
	if len(reloaded.AuditLog) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(reloaded.AuditLog))
	}
	entry := reloaded.AuditLog[0]
	if entry.Actor != "system" || entry.OldStatus != enums.OrderStatusPending || entry.NewStatus != enums.OrderStatusCancelled {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}

	var item models.InventoryItem
	if err := env.db.First(&item, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("reload inventory: %v", err)
	}
	if item.AvailableQty != 10 || item.ReservedQty != 0 {
		t.Fatalf("stock not returned: available=%d reserved=%d", item.AvailableQty, item.ReservedQty)
	}
}

func TestOrderTTLJobRemindsOnceThenExpiresLater(t *testing.T) {
	t.Parallel()

	env := newTTLJobEnv(t)
	ctx := context.Background()
	account := env.seedAccount(t, "remind@example.com")
	productID := env.seedInventory(t, 9, 1)
	young := env.seedOrder(t, account.ID, productID, enums.OrderStatusPending, 2*24*time.Hour, 1)

	if err := env.job.Run(ctx); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if err := env.job.Run(ctx); err != nil {
		t.Fatalf("re-run job: %v", err)
	}

	var reloaded models.Order
	if err := env.db.First(&reloaded, "id = ?", young.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != enums.OrderStatusPending {
		t.Fatalf("young order should stay pending, got %s", reloaded.Status)
	}

	reminders, err := env.notifier.ListForOrder(ctx, young.ID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(reminders) != 1 {
		t.Fatalf("expected exactly 1 reminder across runs, got %d", len(reminders))
	}
	if reminders[0].Kind != enums.NotificationPaymentReminder || reminders[0].Recipient != "remind@example.com" {
		t.Fatalf("unexpected reminder: %+v", reminders[0])
	}
}

func TestOrderTTLJobLeavesSettledOrdersAlone(t *testing.T) {
	t.Parallel()

	env := newTTLJobEnv(t)
	ctx := context.Background()
	account := env.seedAccount(t, "paid@example.com")
	productID := env.seedInventory(t, 5, 5)
	paid := env.seedOrder(t, account.ID, productID, enums.OrderStatusPaid, 10*24*time.Hour, 5)

	if err := env.job.Run(ctx); err != nil {
		t.Fatalf("run job: %v", err)
	}

	var reloaded models.Order
	if err := env.db.First(&reloaded, "id = ?", paid.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.Status != enums.OrderStatusPaid {
		t.Fatalf("paid order touched: %s", reloaded.Status)
	}

	var notificationCount int64
	env.db.Model(&models.Notification{}).Count(&notificationCount)
	if notificationCount != 0 {
		t.Fatalf("expected no reminders for paid order, got %d", notificationCount)
	}
}
