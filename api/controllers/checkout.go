package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/minarilabs/storefront-backend/api/responses"
	"github.com/minarilabs/storefront-backend/api/validators"
	checkoutsvc "github.com/minarilabs/storefront-backend/internal/checkout"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
	"github.com/minarilabs/storefront-backend/pkg/logger"
	"github.com/minarilabs/storefront-backend/pkg/types"
)

type checkoutRequest struct {
	SelectedProductIDs []uuid.UUID    `json:"selected_product_ids,omitempty"`
	PaymentMethod      string         `json:"payment_method" validate:"required"`
	ShippingMethod     string         `json:"shipping_method,omitempty"`
	ShippingAddress    *types.Address `json:"shipping_address,omitempty"`
	PromoCode          string         `json:"promo_code,omitempty"`
}

// Checkout turns the caller's cart selection into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		paymentMethod, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.PaymentMethod))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		order, err := svc.PlaceOrder(r.Context(), checkoutsvc.PlaceOrderInput{
			CustomerID:         customerID,
			SelectedProductIDs: payload.SelectedProductIDs,
			PaymentMethod:      paymentMethod,
			ShippingMethod:     enums.ShippingMethod(strings.TrimSpace(payload.ShippingMethod)),
			ShippingAddress:    payload.ShippingAddress,
			PromoCode:          payload.PromoCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
