package promotions

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/minarilabs/storefront-backend/pkg/db/models"
	"github.com/minarilabs/storefront-backend/pkg/enums"
)

var percentDivisor = decimal.NewFromInt(100)

// EligibleLine is the slice of a cart a promotion is evaluated against.
type EligibleLine struct {
	Category      string
	SubtotalCents int
}

// Evaluation is the outcome of applying one promotion to a set of lines.
// Eligible is false when the promotion exists but cannot apply; Reason then
// says why in customer-facing terms.
type Evaluation struct {
	Promotion     *models.Promotion
	DiscountCents int
	Eligible      bool
	Reason        string
}

// Evaluate applies a single promotion to the lines at the given instant.
// BuyXGetY and FreeShipping promotions are recognized but currently always
// yield a zero discount.
func Evaluate(promo *models.Promotion, lines []EligibleLine, now time.Time) Evaluation {
	result := Evaluation{Promotion: promo}

	if !promo.IsActive {
		result.Reason = "promotion is no longer active"
		return result
	}
	if now.Before(promo.StartsAt) {
		result.Reason = "promotion has not started yet"
		return result
	}
	if now.After(promo.EndsAt) {
		result.Reason = "promotion has expired"
		return result
	}
	if promo.UsageLimit != nil && promo.UsedCount >= *promo.UsageLimit {
		result.Reason = "promotion usage limit reached"
		return result
	}

	eligible := eligibleSubtotalCents(promo, lines)
	if eligible == 0 {
		result.Reason = "no items qualify for this promotion"
		return result
	}
	if promo.MinPurchaseCents != nil && eligible < *promo.MinPurchaseCents {
		result.Reason = "order does not meet the minimum purchase"
		return result
	}

	discount := discountCents(promo, eligible)
	if discount > eligible {
		discount = eligible
	}

	result.DiscountCents = discount
	result.Eligible = true
	return result
}

func eligibleSubtotalCents(promo *models.Promotion, lines []EligibleLine) int {
	if len(promo.ApplicableCategories) == 0 {
		total := 0
		for _, line := range lines {
			total += line.SubtotalCents
		}
		return total
	}

	allowed := make(map[string]struct{}, len(promo.ApplicableCategories))
	for _, category := range promo.ApplicableCategories {
		allowed[normalizeCategory(category)] = struct{}{}
	}

	total := 0
	for _, line := range lines {
		if _, ok := allowed[normalizeCategory(line.Category)]; ok {
			total += line.SubtotalCents
		}
	}
	return total
}

func discountCents(promo *models.Promotion, eligible int) int {
	switch promo.DiscountType {
	case enums.DiscountTypePercentage:
		raw := decimal.NewFromInt(int64(eligible)).
			Mul(promo.DiscountValue).
			Div(percentDivisor).
			Floor()
		discount := int(raw.IntPart())
		if promo.MaxDiscountCents != nil && discount > *promo.MaxDiscountCents {
			discount = *promo.MaxDiscountCents
		}
		if discount < 0 {
			discount = 0
		}
		return discount

	case enums.DiscountTypeFixedAmount:
		discount := int(promo.DiscountValue.Floor().IntPart())
		if discount < 0 {
			return 0
		}
		if discount > eligible {
			discount = eligible
		}
		return discount

	default:
		return 0
	}
}

func normalizeCategory(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
