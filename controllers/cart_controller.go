package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/middleware"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/services"
)

type CartController struct {
	cartService services.CartService
}

func NewCartController(cartService services.CartService) *CartController {
	return &CartController{cartService: cartService}
}

func (cc *CartController) respondCart(c *gin.Context, cart *models.CartView, err error) {
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"cart":      cart.Items,
		"cartTotal": cart.CartTotal,
		"itemCount": cart.ItemCount,
	})
}

func (cc *CartController) GetCart(c *gin.Context) {
	cart, err := cc.cartService.GetCart(c.Request.Context(), middleware.GetIdentity(c).UserID)
	cc.respondCart(c, cart, err)
}

func (cc *CartController) AddToCart(c *gin.Context) {
	var req models.AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	cart, err := cc.cartService.AddItem(c.Request.Context(), middleware.GetIdentity(c).UserID, &req)
	cc.respondCart(c, cart, err)
}

func (cc *CartController) UpdateCartItem(c *gin.Context) {
	var req models.UpdateCartRequest
	if !bindJSON(c, &req) {
		return
	}
	cart, err := cc.cartService.UpdateItem(c.Request.Context(), middleware.GetIdentity(c).UserID, &req)
	cc.respondCart(c, cart, err)
}

// RemoveFromCart drops the line keyed by the path product and the size/color
// query parameters.
func (cc *CartController) RemoveFromCart(c *gin.Context) {
	cart, err := cc.cartService.RemoveItem(c.Request.Context(), middleware.GetIdentity(c).UserID,
		c.Param("productId"), c.Query("size"), c.Query("color"))
	cc.respondCart(c, cart, err)
}

func (cc *CartController) ClearCart(c *gin.Context) {
	if err := cc.cartService.ClearCart(c.Request.Context(), middleware.GetIdentity(c).UserID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Cart cleared"})
}
