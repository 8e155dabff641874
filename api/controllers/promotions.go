package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/minarilabs/storefront-backend/api/responses"
	"github.com/minarilabs/storefront-backend/api/validators"
	"github.com/minarilabs/storefront-backend/internal/cart"
	"github.com/minarilabs/storefront-backend/internal/promotions"
	"github.com/minarilabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
	"github.com/minarilabs/storefront-backend/pkg/logger"
)

type createPromotionRequest struct {
	Code                 string   `json:"code" validate:"required"`
	Name                 string   `json:"name" validate:"required"`
	DiscountType         string   `json:"discount_type" validate:"required"`
	DiscountValue        string   `json:"discount_value" validate:"required"`
	StartsAt             string   `json:"starts_at" validate:"required"`
	EndsAt               string   `json:"ends_at" validate:"required"`
	MinPurchaseCents     *int     `json:"min_purchase_cents,omitempty" validate:"omitempty,min=1"`
	MaxDiscountCents     *int     `json:"max_discount_cents,omitempty" validate:"omitempty,min=1"`
	ApplicableCategories []string `json:"applicable_categories,omitempty"`
	UsageLimit           *int     `json:"usage_limit,omitempty" validate:"omitempty,min=1"`
	PerCustomerLimit     *int     `json:"per_customer_limit,omitempty" validate:"omitempty,min=1"`
}

// CreatePromotion registers a new promotion.
func CreatePromotion(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotions service unavailable"))
			return
		}

		var payload createPromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountType, err := enums.ParseDiscountType(strings.TrimSpace(payload.DiscountType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
			return
		}
		discountValue, err := decimal.NewFromString(strings.TrimSpace(payload.DiscountValue))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount value"))
			return
		}
		startsAt, err := time.Parse(time.RFC3339, payload.StartsAt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "starts_at must be RFC3339"))
			return
		}
		endsAt, err := time.Parse(time.RFC3339, payload.EndsAt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "ends_at must be RFC3339"))
			return
		}

		promo, err := svc.Create(r.Context(), promotions.CreatePromotionInput{
			Code:                 payload.Code,
			Name:                 payload.Name,
			DiscountType:         discountType,
			DiscountValue:        discountValue,
			StartsAt:             startsAt,
			EndsAt:               endsAt,
			MinPurchaseCents:     payload.MinPurchaseCents,
			MaxDiscountCents:     payload.MaxDiscountCents,
			ApplicableCategories: payload.ApplicableCategories,
			UsageLimit:           payload.UsageLimit,
			PerCustomerLimit:     payload.PerCustomerLimit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, promo)
	}
}

type evaluatePromotionRequest struct {
	Code string `json:"code,omitempty"`
}

type discountResult struct {
	Eligible      bool    `json:"eligible"`
	DiscountCents int     `json:"discount_cents"`
	Code          *string `json:"code,omitempty"`
	Name          *string `json:"name,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

func toDiscountResult(evaluation *promotions.Evaluation) discountResult {
	result := discountResult{
		Eligible:      evaluation.Eligible,
		DiscountCents: evaluation.DiscountCents,
		Reason:        evaluation.Reason,
	}
	if evaluation.Promotion != nil {
		code := evaluation.Promotion.Code
		name := evaluation.Promotion.Name
		result.Code = &code
		result.Name = &name
	}
	return result
}

// EvaluatePromotion prices a code, or the best automatic promotion when no
// code is given, against the caller's current cart. Nothing is consumed; the
// discount locks in at checkout. An unknown or inapplicable code comes back
// ineligible rather than as an error, mirroring checkout.
func EvaluatePromotion(carts cart.Service, promos promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil || promos == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotions service unavailable"))
			return
		}

		customerID, err := customerIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload evaluatePromotionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		crt, err := carts.Get(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines := make([]promotions.EligibleLine, 0, len(crt.Lines))
		for _, line := range crt.Lines {
			lines = append(lines, promotions.EligibleLine{
				Category:      line.Category,
				SubtotalCents: line.SubtotalCents(),
			})
		}

		if code := strings.TrimSpace(payload.Code); code != "" {
			evaluation, err := promos.EvaluateCode(r.Context(), code, lines)
			if err != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
					responses.WriteSuccess(w, discountResult{Reason: "promotion not found"})
					return
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, toDiscountResult(&evaluation))
			return
		}

		best, err := promos.BestDiscount(r.Context(), lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if best == nil {
			responses.WriteSuccess(w, discountResult{Reason: "no promotion applies"})
			return
		}
		responses.WriteSuccess(w, toDiscountResult(best))
	}
}

func GetPromotion(svc promotions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promotions service unavailable"))
			return
		}

		promo, err := svc.GetByCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, promo)
	}
}
