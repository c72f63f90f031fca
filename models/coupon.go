package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a percentage discount code. Code is stored uppercase.
type Coupon struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code            string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	DiscountPercent int       `gorm:"not null;check:discount_percent BETWEEN 1 AND 100" json:"discountPercent"`
	MaxDiscount     int64     `gorm:"not null;default:0" json:"maxDiscount"`    // 0 = no cap
	MinOrderAmount  int64     `gorm:"not null;default:0" json:"minOrderAmount"` // 0 = no minimum
	ExpiresAt       time.Time `gorm:"not null" json:"expiresAt"`
	IsActive        bool      `gorm:"not null;default:true" json:"isActive"`
	UsageLimit      int       `gorm:"not null;default:0" json:"usageLimit"` // 0 = unlimited
	UsedCount       int       `gorm:"not null;default:0" json:"usedCount"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

type CreateCouponRequest struct {
	Code            string    `json:"code" binding:"required,min=3,max=64,alphanum"`
	DiscountPercent int       `json:"discountPercent" binding:"required,min=1,max=100"`
	MaxDiscount     int64     `json:"maxDiscount" binding:"gte=0"`
	MinOrderAmount  int64     `json:"minOrderAmount" binding:"gte=0"`
	ExpiresAt       time.Time `json:"expiresAt" binding:"required"`
	UsageLimit      int       `json:"usageLimit" binding:"gte=0"`
	IsActive        *bool     `json:"isActive"`
}

// UpdateCouponRequest carries only the fields being changed.
type UpdateCouponRequest struct {
	DiscountPercent *int       `json:"discountPercent" binding:"omitempty,min=1,max=100"`
	MaxDiscount     *int64     `json:"maxDiscount" binding:"omitempty,gte=0"`
	MinOrderAmount  *int64     `json:"minOrderAmount" binding:"omitempty,gte=0"`
	ExpiresAt       *time.Time `json:"expiresAt"`
	UsageLimit      *int       `json:"usageLimit" binding:"omitempty,gte=0"`
	IsActive        *bool      `json:"isActive"`
}

type ApplyCouponRequest struct {
	Code        string  `json:"code" binding:"required"`
	OrderAmount float64 `json:"orderAmount" binding:"gte=0"`
}

type ApplyCouponResponse struct {
	Success         bool   `json:"success"`
	Code            string `json:"code"`
	Discount        int64  `json:"discount"`
	DiscountPercent int    `json:"discountPercent"`
	Message         string `json:"message"`
}
