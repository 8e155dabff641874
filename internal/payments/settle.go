package payments

import (
	"time"

	"github.com/google/uuid"

	"github.com/minarilabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
)

// SettlementResult is the outcome of a settlement attempt.
type SettlementResult struct {
	Status        enums.PaymentStatus
	TransactionID *string
	SettledAt     *time.Time
}

// Settler runs the one-shot settlement used at checkout. There is no real
// gateway behind it: cash on delivery stays pending until the parcel is
// delivered, every other method settles immediately.
type Settler struct {
	now   func() time.Time
	newID func() string
}

// NewSettler builds the default settler.
func NewSettler() *Settler {
	return &Settler{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Settle attempts to settle the amount with the given method. A settlement
// failure is returned as a failed result, not an error; checkout records the
// failed payment on the order rather than aborting.
func (s *Settler) Settle(amountCents int, method enums.PaymentMethod) (SettlementResult, error) {
	if amountCents <= 0 {
		return SettlementResult{}, pkgerrors.New(pkgerrors.CodeValidation, "settlement amount must be positive")
	}
	if !method.IsValid() {
		return SettlementResult{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	if method == enums.PaymentMethodCashOnDelivery {
		return SettlementResult{Status: enums.PaymentStatusPending}, nil
	}

	settledAt := s.now().UTC()
	transactionID := "TXN-" + s.newID()
	return SettlementResult{
		Status:        enums.PaymentStatusPaid,
		TransactionID: &transactionID,
		SettledAt:     &settledAt,
	}, nil
}
