package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/minarilabs/storefront-backend/api/responses"
	"github.com/minarilabs/storefront-backend/api/validators"
	"github.com/minarilabs/storefront-backend/internal/catalog"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
	"github.com/minarilabs/storefront-backend/pkg/logger"
)

// ListProducts returns the sellable catalog, optionally filtered by category.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		category := validators.SanitizeString(r.URL.Query().Get("category"), 64)
		products, err := svc.List(r.Context(), category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	Name               string `json:"name" validate:"required"`
	SKU                string `json:"sku" validate:"required"`
	Category           string `json:"category"`
	PriceCents         int    `json:"price_cents" validate:"required,min=1"`
	DiscountPriceCents *int   `json:"discount_price_cents,omitempty" validate:"omitempty,min=1"`
	InitialStock       int    `json:"initial_stock" validate:"min=0"`
}

// CreateProduct adds a product with its starting inventory.
func CreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), catalog.CreateProductInput{
			Name:               strings.TrimSpace(payload.Name),
			SKU:                strings.TrimSpace(payload.SKU),
			Category:           strings.TrimSpace(payload.Category),
			PriceCents:         payload.PriceCents,
			DiscountPriceCents: payload.DiscountPriceCents,
			InitialStock:       payload.InitialStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}
