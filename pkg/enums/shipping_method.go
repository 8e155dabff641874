package enums

// ShippingMethod names a carrier service level. The ETA table falls back to a
// generic default for methods it does not recognize, so parsing is lenient.
type ShippingMethod string

const (
	ShippingMethodStandard ShippingMethod = "standard"
	ShippingMethodExpress  ShippingMethod = "express"
	ShippingMethodSameDay  ShippingMethod = "same_day"
)

// String implements fmt.Stringer.
func (s ShippingMethod) String() string {
	return string(s)
}
