package enums

import "fmt"

// OrderStatus tracks the back-office workflow state of an order.
type OrderStatus string

const (
	OrderStatusAwaitingPayment       OrderStatus = "awaiting_payment"
	OrderStatusAwaitingPurchaseOrder OrderStatus = "awaiting_purchase_order"
	OrderStatusReceived              OrderStatus = "received"
	OrderStatusInProgress            OrderStatus = "in_progress"
	OrderStatusSent                  OrderStatus = "sent"
	OrderStatusFinished              OrderStatus = "finished"
	OrderStatusCancelled             OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusAwaitingPayment,
	OrderStatusAwaitingPurchaseOrder,
	OrderStatusReceived,
	OrderStatusInProgress,
	OrderStatusSent,
	OrderStatusFinished,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
