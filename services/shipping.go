package services

// ShippingPolicy prices delivery from the item subtotal.
type ShippingPolicy struct {
	FreeThreshold int64 // subtotals above this ship free
	Fee           int64
}

// DefaultShippingPolicy ships free above ₹2999 and charges ₹149 otherwise.
var DefaultShippingPolicy = ShippingPolicy{FreeThreshold: 2999, Fee: 149}

func (p ShippingPolicy) Price(subtotal int64) int64 {
	if subtotal > p.FreeThreshold {
		return 0
	}
	return p.Fee
}
