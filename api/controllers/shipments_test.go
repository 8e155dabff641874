package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/minarilabs/storefront-backend/internal/shipments"
	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
)

type stubShipmentService struct {
	shipment      *models.Shipment
	err           error
	input         shipments.AppendEventInput
	createOrderID uuid.UUID
	createMethod  enums.ShippingMethod
}

func (s *stubShipmentService) Track(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	return s.shipment, s.err
}

func (s *stubShipmentService) GetForOrder(ctx context.Context, orderID uuid.UUID) (*models.Shipment, error) {
	return s.shipment, s.err
}

func (s *stubShipmentService) CreateForOrder(ctx context.Context, orderID uuid.UUID, method enums.ShippingMethod) (*models.Shipment, error) {
	s.createOrderID = orderID
	s.createMethod = method
	return s.shipment, s.err
}

func (s *stubShipmentService) AppendEvent(ctx context.Context, input shipments.AppendEventInput) (*models.Shipment, error) {
	s.input = input
	return s.shipment, s.err
}

func TestTrackShipmentSuccess(t *testing.T) {
	shipment := &models.Shipment{ID: uuid.New(), TrackingNumber: "SHP-ABCDEF1234567"}
	handler := TrackShipment(&stubShipmentService{shipment: shipment}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments/"+shipment.TrackingNumber, nil)
	req = withURLParam(req, "trackingNumber", shipment.TrackingNumber)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data models.Shipment `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.TrackingNumber != shipment.TrackingNumber {
		t.Fatalf("unexpected tracking number: %s", envelope.Data.TrackingNumber)
	}
}

func TestTrackShipmentNotFound(t *testing.T) {
	handler := TrackShipment(&stubShipmentService{err: pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/shipments/SHP-MISSING", nil)
	req = withURLParam(req, "trackingNumber", "SHP-MISSING")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestOrderShipmentInvalidID(t *testing.T) {
	handler := OrderShipment(&stubShipmentService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/nope/shipment", nil)
	req = withURLParam(req, "orderId", "nope")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateOrderShipmentPassesMethod(t *testing.T) {
	orderID := uuid.New()
	svc := &stubShipmentService{shipment: &models.Shipment{ID: uuid.New(), OrderID: orderID, TrackingNumber: "SHP-NEW1234567890"}}
	handler := CreateOrderShipment(svc, nil)

	body := strings.NewReader(`{"shipping_method":"express"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/shipment", body)
	req = withURLParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.createOrderID != orderID {
		t.Fatalf("unexpected order id: %s", svc.createOrderID)
	}
	if svc.createMethod != enums.ShippingMethodExpress {
		t.Fatalf("unexpected method: %s", svc.createMethod)
	}
}

func TestCreateOrderShipmentConflict(t *testing.T) {
	svc := &stubShipmentService{err: pkgerrors.New(pkgerrors.CodeConflict, "order already has a shipment")}
	handler := CreateOrderShipment(svc, nil)

	orderID := uuid.New()
	body := strings.NewReader(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/shipment", body)
	req = withURLParam(req, "orderId", orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestAppendShipmentEventParsesStatus(t *testing.T) {
	tracking := "SHP-ABCDEF1234567"
	svc := &stubShipmentService{shipment: &models.Shipment{ID: uuid.New(), TrackingNumber: tracking}}
	handler := AppendShipmentEvent(svc, nil)

	body := strings.NewReader(`{"status":"in_transit","location":"Sorting hub","description":"Departed facility"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/"+tracking+"/events", body)
	req = withURLParam(req, "trackingNumber", tracking)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.input.TrackingNumber != tracking {
		t.Fatalf("unexpected tracking number: %s", svc.input.TrackingNumber)
	}
	if svc.input.Status != enums.ShipmentStatusInTransit {
		t.Fatalf("unexpected status: %s", svc.input.Status)
	}
	if svc.input.Location != "Sorting hub" {
		t.Fatalf("unexpected location: %q", svc.input.Location)
	}
}

func TestAppendShipmentEventRejectsUnknownStatus(t *testing.T) {
	handler := AppendShipmentEvent(&stubShipmentService{}, nil)

	body := strings.NewReader(`{"status":"warp_speed"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipments/SHP-X/events", body)
	req = withURLParam(req, "trackingNumber", "SHP-X")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
