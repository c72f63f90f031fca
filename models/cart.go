package models

import "time"

// DefaultCartSize is used when a cart line is added without a size.
const DefaultCartSize = "M"

// CartItem is one line of a cart. (ProductID, Size, Color) identifies the line.
type CartItem struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// Matches reports whether the line is keyed by the given tuple.
func (i CartItem) Matches(productID, size, color string) bool {
	return i.ProductID == productID && i.Size == size && i.Color == color
}

// Cart is the per-user working list stored in Redis.
type Cart struct {
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartLineView is a cart line enriched with live product data.
type CartLineView struct {
	CartItem
	Name          string `json:"name"`
	Image         string `json:"image"`
	Price         int64  `json:"price"`
	DiscountPrice int64  `json:"discountPrice"`
	Stock         int    `json:"stock"`
	Available     bool   `json:"available"`
}

// CartView is the response shape for cart reads and writes.
type CartView struct {
	Items     []CartLineView `json:"items"`
	CartTotal int64          `json:"cartTotal"`
	ItemCount int            `json:"itemCount"`
}

type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required,uuid"`
	Qty       int    `json:"qty" binding:"omitempty,gte=1,lte=100"`
	Size      string `json:"size" binding:"omitempty,productsize"`
	Color     string `json:"color" binding:"max=40"`
}

type UpdateCartRequest struct {
	ProductID string `json:"productId" binding:"required,uuid"`
	Qty       int    `json:"qty" binding:"lte=100"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}
