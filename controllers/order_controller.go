package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/middleware"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/services"
)

type OrderController struct {
	orderService services.OrderService
}

func NewOrderController(orderService services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// CreateOrder places an order for the caller. An Idempotency-Key header is
// used when the body carries no key.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	order, err := oc.orderService.PlaceOrder(c.Request.Context(), middleware.GetIdentity(c), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "order": order})
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	order, err := oc.orderService.GetOrder(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (oc *OrderController) GetMyOrders(c *gin.Context) {
	orders, err := oc.orderService.GetMyOrders(c.Request.Context(), middleware.GetIdentity(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

// GetAllOrders lists every order, newest first (admin only).
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	page, limit := parsePaginationParams(c, 20)

	orders, total, err := oc.orderService.ListOrders(c.Request.Context(), page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"orders":  orders,
		"meta":    paginationMeta(page, limit, total),
	})
}

func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	var req models.UpdateOrderStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := oc.orderService.UpdateStatus(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

func (oc *OrderController) GetStats(c *gin.Context) {
	stats, err := oc.orderService.GetStats(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"totalOrders":   stats.TotalOrders,
		"totalRevenue":  stats.TotalRevenue,
		"totalUsers":    stats.TotalUsers,
		"totalProducts": stats.TotalProducts,
	})
}
