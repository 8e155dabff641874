package types

// Address is the shipping address snapshot copied onto orders and shipments.
// Persisted as jsonb via the GORM json serializer; orders keep their own copy
// so later edits to a customer's saved address never rewrite history.
type Address struct {
	RecipientName string  `json:"recipient_name" validate:"required"`
	Phone         *string `json:"phone,omitempty"`
	Street        string  `json:"street" validate:"required"`
	Unit          *string `json:"unit,omitempty"`
	City          string  `json:"city" validate:"required"`
	Province      string  `json:"province" validate:"required"`
	PostalCode    string  `json:"postal_code" validate:"required"`
	Country       string  `json:"country" validate:"required"`
}

// Clone returns an independent copy of the address.
func (a Address) Clone() Address {
	out := a
	if a.Phone != nil {
		phone := *a.Phone
		out.Phone = &phone
	}
	if a.Unit != nil {
		unit := *a.Unit
		out.Unit = &unit
	}
	return out
}

// IsZero reports whether the address carries no usable destination.
func (a Address) IsZero() bool {
	return a.RecipientName == "" && a.Street == "" && a.City == ""
}
