package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	OrderStatusPlaced     = "Placed"
	OrderStatusConfirmed  = "Confirmed"
	OrderStatusProcessing = "Processing"
	OrderStatusShipped    = "Shipped"
	OrderStatusDelivered  = "Delivered"
	OrderStatusCancelled  = "Cancelled"
)

// Payment statuses.
const (
	PaymentStatusPending  = "Pending"
	PaymentStatusPaid     = "Paid"
	PaymentStatusFailed   = "Failed"
	PaymentStatusRefunded = "Refunded"
)

// Payment methods.
const (
	PaymentMethodStripe = "Stripe"
	PaymentMethodCOD    = "COD"
)

// EstimatedDeliveryWindow is added to the placement time for estimatedDelivery.
const EstimatedDeliveryWindow = 5 * 24 * time.Hour

// ValidPaymentStatus reports whether s is one of the payment statuses.
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// ShippingAddress is embedded in orders with a shipping_ column prefix.
type ShippingAddress struct {
	FullName     string `gorm:"type:varchar(120);not null" json:"fullName" binding:"required,max=120"`
	Phone        string `gorm:"type:varchar(20);not null" json:"phone" binding:"required,max=20"`
	AddressLine1 string `gorm:"type:varchar(255);not null" json:"addressLine1" binding:"required,max=255"`
	AddressLine2 string `gorm:"type:varchar(255)" json:"addressLine2" binding:"max=255"`
	City         string `gorm:"type:varchar(100);not null" json:"city" binding:"required,max=100"`
	State        string `gorm:"type:varchar(100);not null" json:"state" binding:"required,max=100"`
	Pincode      string `gorm:"type:varchar(12);not null" json:"pincode" binding:"required,max=12"`
}

// Order is a placed order. Everything except OrderStatus, PaymentStatus and
// DeliveredAt is fixed at creation; orders are never deleted.
type Order struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            string          `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_orders_user_idempotency,priority:1" json:"userId"`
	OrderItems        []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	ShippingAddress   ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	PaymentMethod     string          `gorm:"type:varchar(16);not null" json:"paymentMethod"`
	PaymentIntentID   *string         `gorm:"type:varchar(255);uniqueIndex" json:"paymentIntentId,omitempty"`
	PaymentStatus     string          `gorm:"type:varchar(16);not null;default:'Pending';index" json:"paymentStatus"`
	OrderStatus       string          `gorm:"type:varchar(16);not null;default:'Placed'" json:"orderStatus"`
	Subtotal          int64           `gorm:"not null" json:"subtotal"`
	Discount          int64           `gorm:"not null;default:0" json:"discount"`
	ShippingPrice     int64           `gorm:"not null;default:0" json:"shippingPrice"`
	TotalPrice        int64           `gorm:"not null" json:"totalPrice"`
	CouponCode        string          `gorm:"type:varchar(64)" json:"couponCode,omitempty"`
	IdempotencyKey    *string         `gorm:"type:varchar(128);uniqueIndex:idx_orders_user_idempotency,priority:2" json:"-"`
	EstimatedDelivery time.Time       `gorm:"not null" json:"estimatedDelivery"`
	DeliveredAt       *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

// OrderItem is a frozen copy of the product as it was sold.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null" json:"product"`
	Name      string    `gorm:"type:varchar(200);not null" json:"name"`
	Image     string    `gorm:"type:text" json:"image"`
	Price     int64     `gorm:"not null" json:"price"`
	Qty       int       `gorm:"not null;check:qty > 0" json:"qty"`
	Size      string    `gorm:"type:varchar(16)" json:"size"`
	Color     string    `gorm:"type:varchar(40)" json:"color"`
}

// ShortID is the order reference shown to customers.
func (o *Order) ShortID() string {
	s := o.ID.String()
	if len(s) < 8 {
		return s
	}
	return s[len(s)-8:]
}

// OrderItemRequest is one line of a placement request. Price is what the
// client saw; it is compared, never trusted. The product id arrives as
// "product" (cart line shape) or "productId".
type OrderItemRequest struct {
	ProductID string `json:"productId" binding:"required,uuid"`
	Qty       int    `json:"qty" binding:"required,gte=1,lte=100"`
	Price     int64  `json:"price" binding:"gte=0"`
	Size      string `json:"size" binding:"omitempty,productsize"`
	Color     string `json:"color" binding:"max=40"`
	Name      string `json:"name"`
	Image     string `json:"image"`
}

func (r *OrderItemRequest) UnmarshalJSON(data []byte) error {
	type plain OrderItemRequest
	var aux struct {
		plain
		Product string `json:"product"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = OrderItemRequest(aux.plain)
	if r.ProductID == "" {
		r.ProductID = aux.Product
	}
	return nil
}

// CreateOrderRequest is the body of POST /api/orders/create.
type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" binding:"dive"`
	ShippingAddress ShippingAddress    `json:"shippingAddress" binding:"required"`
	PaymentMethod   string             `json:"paymentMethod" binding:"required,paymentmethod"`
	PaymentIntentID string             `json:"paymentIntentId"`
	Subtotal        int64              `json:"subtotal" binding:"gte=0"`
	ShippingPrice   int64              `json:"shippingPrice" binding:"gte=0"`
	Discount        int64              `json:"discount" binding:"gte=0"`
	TotalPrice      int64              `json:"totalPrice" binding:"gte=0"`
	CouponCode      string             `json:"couponCode" binding:"max=64"`
	IdempotencyKey  string             `json:"idempotencyKey" binding:"max=128"`
}

// UpdateOrderStatusRequest is the admin transition payload.
type UpdateOrderStatusRequest struct {
	OrderStatus   string `json:"orderStatus" binding:"omitempty,oneof=Placed Confirmed Processing Shipped Delivered Cancelled"`
	PaymentStatus string `json:"paymentStatus" binding:"omitempty,oneof=Pending Paid Failed Refunded"`
}

// OrderStats is the admin dashboard summary.
type OrderStats struct {
	TotalOrders   int64 `json:"totalOrders"`
	TotalRevenue  int64 `json:"totalRevenue"`
	TotalUsers    int64 `json:"totalUsers"`
	TotalProducts int64 `json:"totalProducts"`
}
