package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/services"
)

type CouponController struct {
	couponService services.CouponService
}

func NewCouponController(couponService services.CouponService) *CouponController {
	return &CouponController{couponService: couponService}
}

// ApplyCoupon previews a coupon against an order amount.
func (cc *CouponController) ApplyCoupon(c *gin.Context) {
	var req models.ApplyCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := cc.couponService.ApplyCoupon(c.Request.Context(), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (cc *CouponController) CreateCoupon(c *gin.Context) {
	var req models.CreateCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	coupon, err := cc.couponService.CreateCoupon(c.Request.Context(), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "coupon": coupon})
}

func (cc *CouponController) ListCoupons(c *gin.Context) {
	coupons, err := cc.couponService.ListCoupons(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if coupons == nil {
		coupons = []models.Coupon{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "coupons": coupons})
}

func (cc *CouponController) UpdateCoupon(c *gin.Context) {
	var req models.UpdateCouponRequest
	if !bindJSON(c, &req) {
		return
	}

	coupon, err := cc.couponService.UpdateCoupon(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "coupon": coupon})
}

func (cc *CouponController) DeleteCoupon(c *gin.Context) {
	if err := cc.couponService.DeleteCoupon(c.Request.Context(), c.Param("id")); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Coupon deleted"})
}
