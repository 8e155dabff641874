package shipments

import "github.com/minarilabs/storefront-backend/pkg/enums"

// exceptionStatuses are reachable from every in-flight shipment status.
var exceptionStatuses = []enums.ShipmentStatus{
	enums.ShipmentStatusDeliveryFailed,
	enums.ShipmentStatusReturned,
	enums.ShipmentStatusCancelled,
}

// allowedTransitions is the shipment tracking machine. The carrier path runs
// awaiting_pickup -> picked_up -> in_transit -> out_for_delivery -> delivered,
// with the exception branches open at every step. A failed delivery attempt
// can be retried; delivered, returned and cancelled are terminal.
var allowedTransitions = map[enums.ShipmentStatus][]enums.ShipmentStatus{
	enums.ShipmentStatusAwaitingPickup: append([]enums.ShipmentStatus{
		enums.ShipmentStatusPickedUp,
	}, exceptionStatuses...),
	enums.ShipmentStatusPickedUp: append([]enums.ShipmentStatus{
		enums.ShipmentStatusInTransit,
	}, exceptionStatuses...),
	enums.ShipmentStatusInTransit: append([]enums.ShipmentStatus{
		enums.ShipmentStatusOutForDelivery,
	}, exceptionStatuses...),
	enums.ShipmentStatusOutForDelivery: append([]enums.ShipmentStatus{
		enums.ShipmentStatusDelivered,
	}, exceptionStatuses...),
	enums.ShipmentStatusDeliveryFailed: {
		enums.ShipmentStatusOutForDelivery,
		enums.ShipmentStatusReturned,
		enums.ShipmentStatusCancelled,
	},
}

// CanTransition reports whether a shipment may move between the two statuses.
func CanTransition(from, to enums.ShipmentStatus) bool {
	if from == to {
		return false
	}
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave the status.
func IsTerminal(status enums.ShipmentStatus) bool {
	return len(allowedTransitions[status]) == 0
}
