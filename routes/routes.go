package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samim9090/noirman-ecommerce/controllers"
	"github.com/samim9090/noirman-ecommerce/middleware"
)

// Controllers groups the HTTP handlers mounted under /api.
type Controllers struct {
	Products *controllers.ProductController
	Reviews  *controllers.ReviewController
	Cart     *controllers.CartController
	Coupons  *controllers.CouponController
	Orders   *controllers.OrderController
	Payments *controllers.PaymentController
	Users    *controllers.UserController
}

func RegisterRoutes(r *gin.Engine, h Controllers, auth middleware.AuthConfig) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "storefront"})
	})

	api := r.Group("/api")
	authed := middleware.AuthMiddleware(auth)
	admin := middleware.AdminOnly()

	products := api.Group("/products")
	products.GET("", h.Products.GetProducts)
	products.GET("/:id", h.Products.GetProductByID)
	products.GET("/:id/reviews", h.Reviews.GetReviews)
	products.POST("/:id/reviews", authed, h.Reviews.AddReview)
	products.POST("", authed, admin, h.Products.CreateProduct)
	products.PUT("/:id", authed, admin, h.Products.UpdateProduct)
	products.DELETE("/:id", authed, admin, h.Products.DeleteProduct)

	cart := api.Group("/cart", authed)
	cart.GET("", h.Cart.GetCart)
	cart.POST("/add", h.Cart.AddToCart)
	cart.PUT("/update", h.Cart.UpdateCartItem)
	cart.DELETE("/remove/:productId", h.Cart.RemoveFromCart)
	cart.DELETE("/clear", h.Cart.ClearCart)

	coupons := api.Group("/coupons", authed)
	coupons.POST("/apply", h.Coupons.ApplyCoupon)
	coupons.GET("", admin, h.Coupons.ListCoupons)
	coupons.POST("", admin, h.Coupons.CreateCoupon)
	coupons.PUT("/:id", admin, h.Coupons.UpdateCoupon)
	coupons.DELETE("/:id", admin, h.Coupons.DeleteCoupon)

	orders := api.Group("/orders", authed)
	orders.POST("/create", h.Orders.CreateOrder)
	orders.GET("/my-orders", h.Orders.GetMyOrders)
	orders.GET("/stats", admin, h.Orders.GetStats)
	orders.GET("", admin, h.Orders.GetAllOrders)
	orders.GET("/:id", h.Orders.GetOrderByID)
	orders.PUT("/:id/status", admin, h.Orders.UpdateOrderStatus)

	users := api.Group("/users", authed, admin)
	users.GET("", h.Users.GetUsers)
	users.PUT("/:id/block", h.Users.ToggleBlock)

	// The webhook authenticates by signature, not by user token.
	api.POST("/payment/webhook", h.Payments.Webhook)
	payment := api.Group("/payment", authed)
	payment.POST("/create-intent", h.Payments.CreatePaymentIntent)
	payment.POST("/confirm", h.Payments.ConfirmPayment)
}
