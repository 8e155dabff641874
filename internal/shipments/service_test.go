package shipments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/minarilabs/storefront-backend/internal/orders"
	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
	"github.com/minarilabs/storefront-backend/pkg/types"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestEnv(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:shipments_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Order{}, &models.OrderLine{}, &models.Payment{},
		&models.Shipment{}, &models.ShipmentLogEntry{}, &models.OrderAuditEntry{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	svc, err := NewService(NewRepository(db), orders.NewRepository(db), &testTxRunner{db: db}, NewEstimator([]string{"Jakarta"}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func seedOrderWithoutShipment(t *testing.T, db *gorm.DB, method enums.PaymentMethod, paymentStatus enums.PaymentStatus, orderStatus enums.OrderStatus) *models.Order {
	t.Helper()
	customerID := uuid.New()
	order := &models.Order{
		OrderNumber:   "ORD-" + uuid.NewString()[:8],
		CustomerID:    &customerID,
		Status:        orderStatus,
		SubtotalCents: 5000,
		TotalCents:    5000,
		ShippingAddress: types.Address{
			RecipientName: "Dana Reyes",
			Street:        "14 Harbor Road",
			City:          "Port Allen",
			Province:      "Jakarta",
			PostalCode:    "4021",
			Country:       "ID",
		},
		Payment: &models.Payment{
			Method:      method,
			Status:      paymentStatus,
			AmountCents: 5000,
		},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func seedShipment(t *testing.T, db *gorm.DB, method enums.PaymentMethod, paymentStatus enums.PaymentStatus, orderStatus enums.OrderStatus) *models.Shipment {
	t.Helper()
	customerID := uuid.New()
	order := &models.Order{
		OrderNumber:   "ORD-" + uuid.NewString()[:8],
		CustomerID:    &customerID,
		Status:        orderStatus,
		SubtotalCents: 5000,
		TotalCents:    5000,
		Payment: &models.Payment{
			Method:      method,
			Status:      paymentStatus,
			AmountCents: 5000,
		},
		Shipment: &models.Shipment{
			TrackingNumber:   NewTrackingNumber(),
			Method:           enums.ShippingMethodStandard,
			EstimatedArrival: time.Now().Add(72 * time.Hour),
		},
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	entry := &models.ShipmentLogEntry{
		ShipmentID:  order.Shipment.ID,
		Location:    "warehouse",
		Description: "Shipment created",
		Status:      enums.ShipmentStatusAwaitingPickup,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("seed log: %v", err)
	}
	return order.Shipment
}

func TestAppendEventAdvancesStatus(t *testing.T) {
	t.Parallel()

	svc, db := newTestEnv(t)
	ctx := context.Background()
	shipment := seedShipment(t, db, enums.PaymentMethodCreditCard, enums.PaymentStatusPaid, enums.OrderStatusPaid)

	chain := []enums.ShipmentStatus{
		enums.ShipmentStatusPickedUp,
		enums.ShipmentStatusInTransit,
		enums.ShipmentStatusOutForDelivery,
		enums.ShipmentStatusDelivered,
	}
	for _, next := range chain {
		updated, err := svc.AppendEvent(ctx, AppendEventInput{
			TrackingNumber: shipment.TrackingNumber,
			Status:         next,
			Location:       "somewhere",
		})
		if err != nil {
			t.Fatalf("append %s: %v", next, err)
		}
		if updated.CurrentStatus() != next {
			t.Fatalf("expected %s, got %s", next, updated.CurrentStatus())
		}
	}

	final, err := svc.Track(ctx, shipment.TrackingNumber)
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	// Initial entry plus the four events.
	if len(final.Logs) != 5 {
		t.Fatalf("expected 5 log entries, got %d", len(final.Logs))
	}
}

func TestAppendEventRejectsIllegalTransition(t *testing.T) {
	t.Parallel()

	svc, db := newTestEnv(t)
	shipment := seedShipment(t, db, enums.PaymentMethodCreditCard, enums.PaymentStatusPaid, enums.OrderStatusPaid)

	_, err := svc.AppendEvent(context.Background(), AppendEventInput{
		TrackingNumber: shipment.TrackingNumber,
		Status:         enums.ShipmentStatusDelivered,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestDeliveryFailureCanRetry(t *testing.T) {
	t.Parallel()

	svc, db := newTestEnv(t)
	ctx := context.Background()
	shipment := seedShipment(t, db, enums.PaymentMethodCreditCard, enums.PaymentStatusPaid, enums.OrderStatusPaid)

	for _, next := range []enums.ShipmentStatus{
		enums.ShipmentStatusPickedUp,
		enums.ShipmentStatusInTransit,
		enums.ShipmentStatusOutForDelivery,
		enums.ShipmentStatusDeliveryFailed,
		enums.ShipmentStatusOutForDelivery,
		enums.ShipmentStatusDelivered,
	} {
		if _, err := svc.AppendEvent(ctx, AppendEventInput{
			TrackingNumber: shipment.TrackingNumber,
			Status:         next,
		}); err != nil {
			t.Fatalf("append %s: %v", next, err)
		}
	}
}

func TestDeliverySettlesCashOnDelivery(t *testing.T) {
	t.Parallel()

	svc, db := newTestEnv(t)
	ctx := context.Background()
	shipment := seedShipment(t, db, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusPending, enums.OrderStatusPending)

	if _, err := svc.AppendEvent(ctx, AppendEventInput{
		TrackingNumber: shipment.TrackingNumber,
		Status:         enums.ShipmentStatusPickedUp,
		Location:       "warehouse dock",
	}); err != nil {
		t.Fatalf("pickup: %v", err)
	}

	// The cash stays uncollected until the parcel reaches the customer.
	var payment models.Payment
	if err := db.First(&payment, "order_id = ?", shipment.OrderID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if payment.Status != enums.PaymentStatusPending {
		t.Fatalf("payment settled too early: %s", payment.Status)
	}

	for _, next := range []enums.ShipmentStatus{
		enums.ShipmentStatusInTransit,
		enums.ShipmentStatusOutForDelivery,
		enums.ShipmentStatusDelivered,
	} {
		if _, err := svc.AppendEvent(ctx, AppendEventInput{
			TrackingNumber: shipment.TrackingNumber,
			Status:         next,
		}); err != nil {
			t.Fatalf("append %s: %v", next, err)
		}
	}

	if err := db.First(&payment, "order_id = ?", shipment.OrderID).Error; err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if payment.Status != enums.PaymentStatusPaid {
		t.Fatalf("expected payment paid, got %s", payment.Status)
	}
	if payment.TransactionID == nil || payment.SettledAt == nil {
		t.Fatal("settlement details missing")
	}

	var order models.Order
	if err := db.First(&order, "id = ?", shipment.OrderID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusPaid {
		t.Fatalf("expected order paid, got %s", order.Status)
	}

	var auditCount int64
	if err := db.Model(&models.OrderAuditEntry{}).Where("order_id = ?", order.ID).Count(&auditCount).Error; err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if auditCount != 1 {
		t.Fatalf("expected 1 audit entry, got %d", auditCount)
	}
}

func TestDeliveryLeavesSettledPaymentAlone(t *testing.T) {
	t.Parallel()

	svc, db := newTestEnv(t)
	ctx := context.Background()
	shipment := seedShipment(t, db, enums.PaymentMethodCreditCard, enums.PaymentStatusPaid, enums.OrderStatusPaid)

	for _, next := range []enums.ShipmentStatus{
		enums.ShipmentStatusPickedUp,
		enums.ShipmentStatusInTransit,
		enums.ShipmentStatusOutForDelivery,
		enums.ShipmentStatusDelivered,
	} {
		if _, err := svc.AppendEvent(ctx, AppendEventInput{
			TrackingNumber: shipment.TrackingNumber,
			Status:         next,
		}); err != nil {
			t.Fatalf("append %s: %v", next, err)
		}
	}

	var order models.Order
	if err := db.First(&order, "id = ?", shipment.OrderID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusPaid {
		t.Fatalf("order status changed unexpectedly: %s", order.Status)
	}

	var auditCount int64
	if err := db.Model(&models.OrderAuditEntry{}).Where("order_id = ?", order.ID).Count(&auditCount).Error; err != nil {
		t.Fatalf("count audit: %v", err)
	}
	if auditCount != 0 {
		t.Fatalf("expected no audit entries, got %d", auditCount)
	}
}

func TestCreateForOrderDispatchesCashOrder(t *testing.T) {
	t.Parallel()

	svc, db := newTestEnv(t)
	ctx := context.Background()
	order := seedOrderWithoutShipment(t, db, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusPending, enums.OrderStatusPending)

	shipment, err := svc.CreateForOrder(ctx, order.ID, enums.ShippingMethodExpress)
	if err != nil {
		t.Fatalf("create shipment: %v", err)
	}
	if shipment.OrderID != order.ID || shipment.Method != enums.ShippingMethodExpress {
		t.Fatalf("unexpected shipment: %+v", shipment)
	}
	if shipment.CurrentStatus() != enums.ShipmentStatusAwaitingPickup {
		t.Fatalf("expected awaiting_pickup, got %s", shipment.CurrentStatus())
	}
	if shipment.EstimatedArrival.IsZero() {
		t.Fatal("expected an arrival estimate")
	}
	if shipment.DeliveryAddress.Street != "14 Harbor Road" {
		t.Fatalf("order address not copied: %+v", shipment.DeliveryAddress)
	}

	// Double dispatch is refused.
	_, err = svc.CreateForOrder(ctx, order.ID, enums.ShippingMethodExpress)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateForOrderGuards(t *testing.T) {
	t.Parallel()

	svc, db := newTestEnv(t)
	ctx := context.Background()

	_, err := svc.CreateForOrder(ctx, uuid.New(), enums.ShippingMethodStandard)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}

	cancelled := seedOrderWithoutShipment(t, db, enums.PaymentMethodCashOnDelivery, enums.PaymentStatusPending, enums.OrderStatusCancelled)
	_, err = svc.CreateForOrder(ctx, cancelled.ID, enums.ShippingMethodStandard)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestTrackUnknownNumber(t *testing.T) {
	t.Parallel()

	svc, _ := newTestEnv(t)

	_, err := svc.Track(context.Background(), "SHP-UNKNOWN")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestEstimateArrivalTable(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	estimator := NewEstimator([]string{"Jakarta", "West Java"})

	near := types.Address{Province: "Jakarta"}
	far := types.Address{Province: "Papua"}

	cases := []struct {
		method      enums.ShippingMethod
		destination types.Address
		want        time.Duration
	}{
		{enums.ShippingMethodSameDay, near, 6 * time.Hour},
		{enums.ShippingMethodSameDay, far, 6 * time.Hour},
		{enums.ShippingMethodExpress, near, 24 * time.Hour},
		{enums.ShippingMethodExpress, far, 72 * time.Hour},
		{enums.ShippingMethodStandard, near, 72 * time.Hour},
		{enums.ShippingMethodStandard, far, 168 * time.Hour},
		{"carrier_pigeon", far, 72 * time.Hour},
	}
	for _, tc := range cases {
		got := estimator.EstimateArrival(tc.method, tc.destination, now)
		if got.Sub(now) != tc.want {
			t.Fatalf("%s to %s: expected offset %s, got %s", tc.method, tc.destination.Province, tc.want, got.Sub(now))
		}
	}

	// Province matching ignores case and padding.
	padded := types.Address{Province: "  west java "}
	if estimator.EstimateArrival(enums.ShippingMethodStandard, padded, now).Sub(now) != 72*time.Hour {
		t.Fatal("expected padded province to count as near")
	}
}
