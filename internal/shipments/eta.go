package shipments

import (
	"strings"
	"time"

	"github.com/minarilabs/storefront-backend/pkg/enums"
	"github.com/minarilabs/storefront-backend/pkg/types"
)

const (
	sameDayOffset      = 6 * time.Hour
	expressNearOffset  = 24 * time.Hour
	expressFarOffset   = 3 * 24 * time.Hour
	standardNearOffset = 3 * 24 * time.Hour
	standardFarOffset  = 7 * 24 * time.Hour
)

// Estimator computes delivery estimates from the shipping method and the
// destination province. Provinces in the near set get the short offsets;
// everything else is treated as far.
type Estimator struct {
	nearProvinces map[string]struct{}
}

// NewEstimator builds an estimator from the configured near-province list.
func NewEstimator(nearProvinces []string) *Estimator {
	near := make(map[string]struct{}, len(nearProvinces))
	for _, province := range nearProvinces {
		if normalized := normalizeProvince(province); normalized != "" {
			near[normalized] = struct{}{}
		}
	}
	return &Estimator{nearProvinces: near}
}

// EstimateArrival returns the estimated delivery time for a shipment created
// now. Same-day ignores the region; an unrecognized method falls back to the
// standard near offset.
func (e *Estimator) EstimateArrival(method enums.ShippingMethod, destination types.Address, now time.Time) time.Time {
	return now.UTC().Add(e.offset(method, destination))
}

func (e *Estimator) offset(method enums.ShippingMethod, destination types.Address) time.Duration {
	near := e.isNear(destination.Province)

	switch method {
	case enums.ShippingMethodSameDay:
		return sameDayOffset
	case enums.ShippingMethodExpress:
		if near {
			return expressNearOffset
		}
		return expressFarOffset
	case enums.ShippingMethodStandard:
		if near {
			return standardNearOffset
		}
		return standardFarOffset
	default:
		return standardNearOffset
	}
}

func (e *Estimator) isNear(province string) bool {
	_, ok := e.nearProvinces[normalizeProvince(province)]
	return ok
}

func normalizeProvince(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
