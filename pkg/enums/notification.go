package enums

// NotificationKind labels the events the notification collaborator records.
type NotificationKind string

const (
	NotificationOrderCreated    NotificationKind = "order_created"
	NotificationOrderStatus     NotificationKind = "order_status_changed"
	NotificationShipmentUpdate  NotificationKind = "shipment_update"
	NotificationPaymentReminder NotificationKind = "payment_reminder"
)

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}
