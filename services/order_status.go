package services

import "github.com/samim9090/noirman-ecommerce/models"

// fulfilmentSteps orders the forward path of an order.
var fulfilmentSteps = map[string]int{
	models.OrderStatusPlaced:     0,
	models.OrderStatusConfirmed:  1,
	models.OrderStatusProcessing: 2,
	models.OrderStatusShipped:    3,
	models.OrderStatusDelivered:  4,
}

// IsTerminalStatus reports whether no transition may leave status.
func IsTerminalStatus(status string) bool {
	return status == models.OrderStatusDelivered || status == models.OrderStatusCancelled
}

// CanTransition reports whether an admin may move an order from one status to
// another. Orders move forward along the fulfilment path (steps may be
// skipped) or get cancelled before they are delivered. Writing the current
// status again is always allowed.
func CanTransition(from, to string) bool {
	if from == to {
		_, known := fulfilmentSteps[to]
		return known || to == models.OrderStatusCancelled
	}
	if IsTerminalStatus(from) {
		return false
	}
	if to == models.OrderStatusCancelled {
		return true
	}
	fromStep, ok := fulfilmentSteps[from]
	if !ok {
		return false
	}
	toStep, ok := fulfilmentSteps[to]
	return ok && toStep > fromStep
}
