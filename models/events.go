package models

import "time"

// Event names published on the order topic.
const (
	EventOrderPlaced        = "order_placed"
	EventOrderStatusChanged = "order_status_changed"
	EventCouponRedeemed     = "coupon_redeemed"
	EventPaymentUpdated     = "payment_status_changed"
)

type OrderPlacedEvent struct {
	Event         string    `json:"event"`
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id"`
	TotalPrice    int64     `json:"total_price"`
	PaymentMethod string    `json:"payment_method"`
	PaymentStatus string    `json:"payment_status"`
	CouponCode    string    `json:"coupon_code,omitempty"`
	ItemCount     int       `json:"item_count"`
	Timestamp     time.Time `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	Event         string    `json:"event"`
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id"`
	OrderStatus   string    `json:"order_status"`
	PaymentStatus string    `json:"payment_status"`
	Timestamp     time.Time `json:"timestamp"`
}

type CouponRedeemedEvent struct {
	Event     string    `json:"event"`
	Code      string    `json:"code"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Discount  int64     `json:"discount"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderConfirmation is the notification payload queued after placement.
type OrderConfirmation struct {
	OrderID           string      `json:"order_id"`
	Email             string      `json:"email"`
	Name              string      `json:"name"`
	Items             []OrderItem `json:"items"`
	Subtotal          int64       `json:"subtotal"`
	Discount          int64       `json:"discount"`
	ShippingPrice     int64       `json:"shipping_price"`
	TotalPrice        int64       `json:"total_price"`
	PaymentMethod     string      `json:"payment_method"`
	EstimatedDelivery time.Time   `json:"estimated_delivery"`
	City              string      `json:"city"`
	Pincode           string      `json:"pincode"`
}
