package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/minarilabs/storefront-backend/internal/orders"
	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
	"github.com/minarilabs/storefront-backend/pkg/pagination"
)

type stubOrderService struct {
	order *models.Order
	page  *orders.CustomerOrdersPage
	err   error

	listParams      pagination.Params
	transitionInput orders.TransitionInput
}

func (s *stubOrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*orders.CustomerOrdersPage, error) {
	s.listParams = params
	return s.page, s.err
}

func (s *stubOrderService) Transition(ctx context.Context, input orders.TransitionInput) (*models.Order, error) {
	s.transitionInput = input
	return s.order, s.err
}

func TestListOrdersPassesPagination(t *testing.T) {
	customerID := uuid.New()
	svc := &stubOrderService{page: &orders.CustomerOrdersPage{Orders: []models.Order{{ID: uuid.New()}}}}
	handler := ListOrders(svc, nil)

	req := withCustomer(httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=10&cursor=abc", nil), customerID)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.listParams.Limit != 10 {
		t.Fatalf("unexpected limit: %d", svc.listParams.Limit)
	}
	if svc.listParams.Cursor != "abc" {
		t.Fatalf("unexpected cursor: %q", svc.listParams.Cursor)
	}
}

func TestListOrdersRejectsOversizedLimit(t *testing.T) {
	handler := ListOrders(&stubOrderService{}, nil)

	req := withCustomer(httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=5000", nil), uuid.New())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderDetailByNumber(t *testing.T) {
	order := &models.Order{ID: uuid.New(), OrderNumber: "ORD-ABCDEF123456"}
	handler := OrderDetail(&stubOrderService{order: order}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+order.OrderNumber, nil)
	req = withURLParam(req, "orderNumber", order.OrderNumber)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != order.ID {
		t.Fatalf("unexpected order id: %s", envelope.Data.ID)
	}
}

func TestTransitionOrderParsesStatus(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{order: &models.Order{ID: orderID, Status: enums.OrderStatusShipped}}
	handler := TransitionOrder(svc, nil)

	body := strings.NewReader(`{"status":"shipped","actor":"ops","note":"handed to carrier"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/transition", body)
	req = withURLParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.transitionInput.OrderID != orderID {
		t.Fatalf("unexpected order id: %s", svc.transitionInput.OrderID)
	}
	if svc.transitionInput.NewStatus != enums.OrderStatusShipped {
		t.Fatalf("unexpected status: %s", svc.transitionInput.NewStatus)
	}
	if svc.transitionInput.Actor != "ops" {
		t.Fatalf("unexpected actor: %q", svc.transitionInput.Actor)
	}
}

func TestTransitionOrderRejectsUnknownStatus(t *testing.T) {
	handler := TransitionOrder(&stubOrderService{}, nil)

	body := strings.NewReader(`{"status":"teleported","actor":"ops"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/transition", body)
	req = withURLParam(req, "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestTransitionOrderSurfacesStateConflict(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot move delivered order to shipped")}
	handler := TransitionOrder(svc, nil)

	body := strings.NewReader(`{"status":"shipped","actor":"ops"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+uuid.NewString()+"/transition", body)
	req = withURLParam(req, "orderId", uuid.NewString())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

type stubNotificationService struct {
	rows []models.Notification
	err  error
}

func (s *stubNotificationService) Notify(ctx context.Context, kind enums.NotificationKind, orderID uuid.UUID, recipient string) error {
	return s.err
}

func (s *stubNotificationService) NotifyAsync(ctx context.Context, kind enums.NotificationKind, orderID uuid.UUID, recipient string) {
}

func (s *stubNotificationService) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.Notification, error) {
	return s.rows, s.err
}

func (s *stubNotificationService) ExistsForOrder(ctx context.Context, orderID uuid.UUID, kind enums.NotificationKind) (bool, error) {
	return len(s.rows) > 0, s.err
}

func TestOrderNotificationsListsRows(t *testing.T) {
	orderID := uuid.New()
	svc := &stubNotificationService{rows: []models.Notification{{ID: uuid.New(), OrderID: orderID}}}
	handler := OrderNotifications(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID.String()+"/notifications", nil)
	req = withURLParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data []models.Notification `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 {
		t.Fatalf("expected 1 notification got %d", len(envelope.Data))
	}
}

func TestOrderNotificationsInvalidID(t *testing.T) {
	handler := OrderNotifications(&stubNotificationService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/not-a-uuid/notifications", nil)
	req = withURLParam(req, "orderId", "not-a-uuid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
