package orders

import "github.com/minarilabs/storefront-backend/pkg/enums"

// sideStatuses are reachable from every status still in flight.
var sideStatuses = []enums.OrderStatus{
	enums.OrderStatusCancelled,
	enums.OrderStatusRefunded,
	enums.OrderStatusReturned,
	enums.OrderStatusExchanged,
	enums.OrderStatusOnHold,
}

// allowedTransitions is the full order status machine. The happy path runs
// pending -> paid -> processing -> shipped -> delivered; every non-terminal
// status can also divert to a side status, an on-hold order resumes anywhere
// on the main chain, and the post-delivery flows (returned, exchanged,
// refunded) hang off delivered.
var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending: append([]enums.OrderStatus{
		enums.OrderStatusPaid,
		enums.OrderStatusProcessing,
	}, sideStatuses...),
	enums.OrderStatusPaid: append([]enums.OrderStatus{
		enums.OrderStatusProcessing,
	}, sideStatuses...),
	enums.OrderStatusProcessing: append([]enums.OrderStatus{
		enums.OrderStatusShipped,
	}, sideStatuses...),
	enums.OrderStatusShipped: append([]enums.OrderStatus{
		enums.OrderStatusDelivered,
	}, sideStatuses...),
	enums.OrderStatusDelivered: {
		enums.OrderStatusReturned,
		enums.OrderStatusExchanged,
		enums.OrderStatusRefunded,
	},
	enums.OrderStatusOnHold: {
		enums.OrderStatusPending,
		enums.OrderStatusPaid,
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCancelled,
		enums.OrderStatusRefunded,
		enums.OrderStatusReturned,
		enums.OrderStatusExchanged,
	},
	// cancelled, refunded, returned, exchanged are terminal.
}

// CanTransition reports whether an order may move between the two statuses.
func CanTransition(from, to enums.OrderStatus) bool {
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
func IsTerminal(status enums.OrderStatus) bool {
	return len(allowedTransitions[status]) == 0
}
