package shipments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/internal/orders"
	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes shipment tracking. Status lives in the append-only log;
// CreateForOrder dispatches an order that checked out without a shipment and
// AppendEvent records carrier progress.
type Service interface {
	Track(ctx context.Context, trackingNumber string) (*models.Shipment, error)
	GetForOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error)
	CreateForOrder(ctx context.Context, orderID uuid.UUID, method enums.ShippingMethod) (*models.Shipment, error)
	AppendEvent(ctx context.Context, input AppendEventInput) (*models.Shipment, error)
}

type service struct {
	repo      ShipmentRepository
	orders    orders.OrderRepository
	tx        txRunner
	estimator *Estimator
	now       func() time.Time
}

// NewService builds a shipment service. The order repository is needed
// because a cash-on-delivery payment settles when the parcel is delivered.
func NewService(repo ShipmentRepository, orderRepo orders.OrderRepository, tx txRunner, estimator *Estimator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipment repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if estimator == nil {
		return nil, fmt.Errorf("arrival estimator required")
	}
	return &service{repo: repo, orders: orderRepo, tx: tx, estimator: estimator, now: time.Now}, nil
}

// AppendEventInput captures one carrier event.
type AppendEventInput struct {
	TrackingNumber string
	Status         enums.ShipmentStatus
	Location       string
	Description    string
}

// NewTrackingNumber mints a carrier-style tracking number.
func NewTrackingNumber() string {
	return "SHP-" + strings.ToUpper(uuid.NewString()[:13])
}

// Track returns the shipment for a tracking number.
func (s *service) Track(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	number := strings.TrimSpace(trackingNumber)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number is required")
	}
	shipment, err := s.repo.FindByTracking(ctx, number)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}

// GetForOrder returns the shipment attached to an order.
func (s *service) GetForOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	shipment, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	return shipment, nil
}

// CreateForOrder opens the shipment for an order that has none yet. Checkout
// only ships settled payments, so cash-on-delivery and failed-payment orders
// are dispatched here once ops clears them.
func (s *service) CreateForOrder(ctx context.Context, orderID uuid.UUID, method enums.ShippingMethod) (*models.Shipment, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if method == "" {
		method = enums.ShippingMethodStandard
	}

	var shipmentID uuid.UUID
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.orders.WithTx(tx).FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Shipment != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already has a shipment")
		}
		if orders.IsTerminal(order.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("order in status %s cannot be dispatched", order.Status))
		}

		now := s.now().UTC()
		shipment := &models.Shipment{
			OrderID:          order.ID,
			TrackingNumber:   NewTrackingNumber(),
			Method:           method,
			DeliveryAddress:  order.ShippingAddress.Clone(),
			EstimatedArrival: s.estimator.EstimateArrival(method, order.ShippingAddress, now),
			Logs: []models.ShipmentLogEntry{{
				Location:    "warehouse",
				Description: "Shipment created",
				Status:      enums.ShipmentStatusAwaitingPickup,
				Timestamp:   now,
			}},
		}
		if err := s.repo.WithTx(tx).Create(ctx, shipment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment")
		}
		shipmentID = shipment.ID
		return nil
	}); err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, shipmentID)
}

// AppendEvent validates the transition off the last log entry and appends the
// new one. When a cash-on-delivery parcel is delivered, the payment settles
// and a pending order moves to paid in the same transaction.
func (s *service) AppendEvent(ctx context.Context, input AppendEventInput) (*models.Shipment, error) {
	number := strings.TrimSpace(input.TrackingNumber)
	if number == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number is required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipment status")
	}

	var shipmentID uuid.UUID
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		shipment, err := repo.FindByTracking(ctx, number)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		shipmentID = shipment.ID

		current := shipment.CurrentStatus()
		if !CanTransition(current, input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("shipment cannot move from %s to %s", current, input.Status))
		}

		entry := &models.ShipmentLogEntry{
			ShipmentID:  shipment.ID,
			Location:    strings.TrimSpace(input.Location),
			Description: strings.TrimSpace(input.Description),
			Status:      input.Status,
			Timestamp:   s.now().UTC(),
		}
		if err := repo.AppendLog(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append shipment log")
		}

		if input.Status == enums.ShipmentStatusDelivered {
			if err := s.settleCashOnDelivery(ctx, tx, shipment.OrderID); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, shipmentID)
}

// settleCashOnDelivery completes a cash-on-delivery payment once the parcel
// reaches the customer. Pre-settled and non-cash payments are left alone.
func (s *service) settleCashOnDelivery(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	repo := s.orders.WithTx(tx)
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order for delivery")
	}
	payment := order.Payment
	if payment == nil || payment.Method != enums.PaymentMethodCashOnDelivery || payment.Status != enums.PaymentStatusPending {
		return nil
	}

	now := s.now().UTC()
	transactionID := "COD-" + uuid.NewString()
	updates := map[string]any{
		"status":         enums.PaymentStatusPaid,
		"transaction_id": transactionID,
		"settled_at":     now,
	}
	if err := repo.UpdatePayment(ctx, payment.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle cash payment")
	}

	if order.Status == enums.OrderStatusPending && orders.CanTransition(order.Status, enums.OrderStatusPaid) {
		if err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusPaid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		entry := &models.OrderAuditEntry{
			OrderID:   order.ID,
			OldStatus: order.Status,
			NewStatus: enums.OrderStatusPaid,
			Actor:     "system",
			Note:      "cash on delivery settled at delivery",
			Timestamp: now,
		}
		if err := repo.AppendAudit(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append audit entry")
		}
	}
	return nil
}
