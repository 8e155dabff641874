package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/internal/checkout/reservation"
	"github.com/minarilabs/storefront-backend/internal/orders"
	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	"github.com/minarilabs/storefront-backend/pkg/logger"
)

const (
	pendingReminderDays = 1
	orderExpirationDays = 3
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pendingOrderReader interface {
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Order, error)
}

type reminderNotifier interface {
	ExistsForOrder(ctx context.Context, orderID uuid.UUID, kind enums.NotificationKind) (bool, error)
	Notify(ctx context.Context, kind enums.NotificationKind, orderID uuid.UUID, recipient string) error
}

type accountEmailReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// OrderTTLJobParams configure the pending order scheduler.
type OrderTTLJobParams struct {
	Logger        *logger.Logger
	DB            txRunner
	PendingReader pendingOrderReader
	Orders        orders.OrderRepository
	Accounts      accountEmailReader
	Notifier      reminderNotifier
}

// NewOrderTTLJob builds the cron job that reminds and expires unpaid orders.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.PendingReader == nil {
		return nil, fmt.Errorf("pending orders reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("account reader required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &orderTTLJob{
		logg:          params.Logger,
		db:            params.DB,
		pendingReader: params.PendingReader,
		orders:        params.Orders,
		accounts:      params.Accounts,
		notifier:      params.Notifier,
		now:           time.Now,
	}, nil
}

type orderTTLJob struct {
	logg          *logger.Logger
	db            txRunner
	pendingReader pendingOrderReader
	orders        orders.OrderRepository
	accounts      accountEmailReader
	notifier      reminderNotifier
	now           func() time.Time
}

func (j *orderTTLJob) Name() string { return "order-ttl" }

func (j *orderTTLJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.remindPendingOrders(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.expirePendingOrders(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

// remindPendingOrders records one payment reminder per unpaid order that has
// sat pending past the reminder window. The dedup check keeps a daily cycle
// from piling up repeats.
func (j *orderTTLJob) remindPendingOrders(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-pendingReminderDays * 24 * time.Hour)
	pending, err := j.pendingReader.FindPendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query pending orders for reminder: %w", err)
	}
	count := 0
	for _, order := range pending {
		sent, err := j.remindOrder(ctx, order)
		if err != nil {
			return err
		}
		if sent {
			count++
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "payment reminder loop complete")
	return nil
}

func (j *orderTTLJob) remindOrder(ctx context.Context, order models.Order) (bool, error) {
	if order.CustomerID == nil {
		return false, nil
	}
	exists, err := j.notifier.ExistsForOrder(ctx, order.ID, enums.NotificationPaymentReminder)
	if err != nil {
		return false, fmt.Errorf("check reminder existence: %w", err)
	}
	if exists {
		return false, nil
	}
	account, err := j.accounts.Get(ctx, *order.CustomerID)
	if err != nil {
		return false, fmt.Errorf("resolve reminder recipient: %w", err)
	}
	if err := j.notifier.Notify(ctx, enums.NotificationPaymentReminder, order.ID, account.Email); err != nil {
		return false, fmt.Errorf("record payment reminder: %w", err)
	}
	return true, nil
}

func (j *orderTTLJob) expirePendingOrders(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-orderExpirationDays * 24 * time.Hour)
	pending, err := j.pendingReader.FindPendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query pending orders for expiration: %w", err)
	}
	count := 0
	for _, order := range pending {
		if err := j.expireOrder(ctx, order); err != nil {
			return err
		}
		count++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count})
	j.logg.Info(logCtx, "order expiration loop complete")
	return nil
}

// expireOrder cancels one stale order: the reserved stock goes back to the
// shelf and the audit log records the system cancellation. The status is
// re-checked inside the transaction in case a payment landed meanwhile.
func (j *orderTTLJob) expireOrder(ctx context.Context, order models.Order) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.orders.WithTx(tx)
		current, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return err
		}
		if current.Status != enums.OrderStatusPending {
			return nil
		}
		for _, line := range current.Lines {
			if line.ProductID == nil {
				continue
			}
			if err := reservation.ReleaseInventory(ctx, tx, *line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		if err := repo.UpdateStatus(ctx, current.ID, enums.OrderStatusCancelled); err != nil {
			return err
		}
		return repo.AppendAudit(ctx, &models.OrderAuditEntry{
			OrderID:   current.ID,
			OldStatus: enums.OrderStatusPending,
			NewStatus: enums.OrderStatusCancelled,
			Actor:     "system",
			Note:      "expired after pending payment window",
			Timestamp: j.now().UTC(),
		})
	})
}
