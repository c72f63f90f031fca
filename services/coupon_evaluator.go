package services

import (
	"math"
	"time"

	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
)

// EvaluateCoupon computes the discount coupon grants on orderAmount at now.
// Checks run in a fixed order: inactive, expired, minimum order, usage. The
// discount is floor(orderAmount * percent / 100), capped by MaxDiscount when
// set. It never mutates the coupon.
func EvaluateCoupon(coupon *models.Coupon, orderAmount float64, now time.Time) (int64, error) {
	if !coupon.IsActive {
		return 0, apperrors.ErrCouponInactive
	}
	if !now.Before(coupon.ExpiresAt) {
		return 0, apperrors.ErrCouponExpired
	}
	if coupon.MinOrderAmount > 0 && orderAmount < float64(coupon.MinOrderAmount) {
		return 0, apperrors.ErrMinOrderNotMet.WithMessage("Minimum order amount of ₹%d required", coupon.MinOrderAmount)
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return 0, apperrors.ErrCouponUsageExhausted
	}

	discount := int64(math.Floor(orderAmount * float64(coupon.DiscountPercent) / 100))
	if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
		discount = coupon.MaxDiscount
	}
	if discount < 0 {
		discount = 0
	}
	return discount, nil
}
