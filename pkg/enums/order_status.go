package enums

import "fmt"

// OrderStatus tracks fulfillment of an order, independent of payment.
type OrderStatus string

const (
	OrderStatusPreparing         OrderStatus = "Preparando"
	OrderStatusShipped           OrderStatus = "Enviado"
	OrderStatusDelivered         OrderStatus = "Entregado"
	OrderStatusCancelled         OrderStatus = "Cancelado"
	OrderStatusRefunded          OrderStatus = "Reembolsado"
	OrderStatusPartiallyRefunded OrderStatus = "Reembolsado parcialmente"
	OrderStatusInReturn          OrderStatus = "En devolución"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPreparing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusRefunded,
	OrderStatusPartiallyRefunded,
	OrderStatusInReturn,
}

var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPreparing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled, OrderStatusInReturn},
	OrderStatusDelivered: {OrderStatusInReturn, OrderStatusRefunded, OrderStatusPartiallyRefunded},
	OrderStatusInReturn:  {OrderStatusRefunded, OrderStatusPartiallyRefunded, OrderStatusDelivered},
	OrderStatusPartiallyRefunded: {
		OrderStatusRefunded,
		OrderStatusInReturn,
	},
	OrderStatusCancelled: {OrderStatusRefunded},
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether an admin may move an order from o to next.
// Re-applying the current status is allowed and treated as a no-op by callers.
func (o OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !o.IsValid() || !next.IsValid() {
		return false
	}
	if o == next {
		return true
	}
	for _, candidate := range orderStatusTransitions[o] {
		if candidate == next {
			return true
		}
	}
	return false
}

// AllowedTransitions lists the statuses reachable from o.
func (o OrderStatus) AllowedTransitions() []OrderStatus {
	next := orderStatusTransitions[o]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
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
