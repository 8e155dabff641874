package reservation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/minarilabs/storefront-backend/pkg/errors"
)

// InventoryReservationRequest asks for one cart line's stock to be held.
type InventoryReservationRequest struct {
	LineID    uuid.UUID
	ProductID uuid.UUID
	Qty       int
}

// InventoryReservationResult reports the outcome per request. Reason is set
// only when the hold failed.
type InventoryReservationResult struct {
	LineID    uuid.UUID
	ProductID uuid.UUID
	Reserved  bool
	Reason    string
}

// ReserveInventory moves quantity from available to reserved for each
// request, inside the caller's transaction. The decrement is conditional on
// sufficient stock in the same statement, so concurrent checkouts can never
// drive availability negative. Requests are processed in order; a failed hold
// is reported, not retried.
func ReserveInventory(ctx context.Context, tx *gorm.DB, requests []InventoryReservationRequest) ([]InventoryReservationResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory reservation")
	}
	for _, request := range requests {
		if request.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required for reservation")
		}
		if request.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
		}
	}

	results := make([]InventoryReservationResult, 0, len(requests))
	for _, request := range requests {
		result := InventoryReservationResult{
			LineID:    request.LineID,
			ProductID: request.ProductID,
		}

		res := tx.WithContext(ctx).Exec(`
			UPDATE inventory_items
			SET available_qty = available_qty - ?,
				reserved_qty = reserved_qty + ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE product_id = ? AND available_qty >= ?
		`, request.Qty, request.Qty, request.ProductID, request.Qty)
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve inventory")
		}

		if res.RowsAffected == 0 {
			result.Reason = "insufficient inventory"
		} else {
			result.Reserved = true
		}
		results = append(results, result)
	}
	return results, nil
}

// ReleaseInventory returns previously reserved stock, used when an order is
// cancelled before fulfillment. The guard on reserved_qty keeps a double
// release from inflating availability.
func ReleaseInventory(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory release")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET available_qty = available_qty + ?,
			reserved_qty = reserved_qty - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND reserved_qty >= ?
	`, qty, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release inventory")
	}
	return nil
}
