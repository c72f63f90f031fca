package controllers_test

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/samim9090/noirman-ecommerce/middleware"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/payment"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
}

// withIdentity stands in for AuthMiddleware.
func withIdentity(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserContextKey, userID)
		c.Set(middleware.RoleContextKey, role)
		c.Set(middleware.EmailContextKey, userID+"@example.com")
		c.Next()
	}
}

type mockOrderService struct {
	placeFn  func(ctx context.Context, who models.Identity, req *models.CreateOrderRequest) (*models.Order, error)
	getFn    func(ctx context.Context, who models.Identity, id string) (*models.Order, error)
	mineFn   func(ctx context.Context, who models.Identity) ([]models.Order, error)
	listFn   func(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	statusFn func(ctx context.Context, id string, req *models.UpdateOrderStatusRequest) (*models.Order, error)
	statsFn  func(ctx context.Context) (*models.OrderStats, error)
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, who models.Identity, req *models.CreateOrderRequest) (*models.Order, error) {
	return m.placeFn(ctx, who, req)
}
func (m *mockOrderService) GetOrder(ctx context.Context, who models.Identity, id string) (*models.Order, error) {
	return m.getFn(ctx, who, id)
}
func (m *mockOrderService) GetMyOrders(ctx context.Context, who models.Identity) ([]models.Order, error) {
	return m.mineFn(ctx, who)
}
func (m *mockOrderService) ListOrders(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	return m.listFn(ctx, page, limit)
}
func (m *mockOrderService) UpdateStatus(ctx context.Context, id string, req *models.UpdateOrderStatusRequest) (*models.Order, error) {
	return m.statusFn(ctx, id, req)
}
func (m *mockOrderService) GetStats(ctx context.Context) (*models.OrderStats, error) {
	return m.statsFn(ctx)
}

type mockPaymentService struct {
	createFn  func(ctx context.Context, who models.Identity, amount float64) (*payment.Intent, error)
	confirmFn func(ctx context.Context, intentID string) (*payment.Intent, error)
	webhookFn func(ctx context.Context, payload []byte, signature string) error
}

func (m *mockPaymentService) CreateIntent(ctx context.Context, who models.Identity, amount float64) (*payment.Intent, error) {
	return m.createFn(ctx, who, amount)
}
func (m *mockPaymentService) ConfirmPayment(ctx context.Context, intentID string) (*payment.Intent, error) {
	return m.confirmFn(ctx, intentID)
}
func (m *mockPaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.webhookFn(ctx, payload, signature)
}

type mockCatalogService struct {
	listFn   func(ctx context.Context, filter models.ProductFilter, page, limit int) (*models.ProductPage, error)
	getFn    func(ctx context.Context, id string) (*models.Product, error)
	createFn func(ctx context.Context, req *models.ProductRequest) (*models.Product, error)
}

func (m *mockCatalogService) ListProducts(ctx context.Context, filter models.ProductFilter, page, limit int) (*models.ProductPage, error) {
	return m.listFn(ctx, filter, page, limit)
}
func (m *mockCatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return m.getFn(ctx, id)
}
func (m *mockCatalogService) CreateProduct(ctx context.Context, req *models.ProductRequest) (*models.Product, error) {
	return m.createFn(ctx, req)
}
func (m *mockCatalogService) UpdateProduct(ctx context.Context, id string, req *models.ProductRequest) (*models.Product, error) {
	return nil, nil
}
func (m *mockCatalogService) DeleteProduct(ctx context.Context, id string) error {
	return nil
}

type mockCouponService struct {
	applyFn  func(ctx context.Context, req *models.ApplyCouponRequest) (*models.ApplyCouponResponse, error)
	createFn func(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, error)
}

func (m *mockCouponService) ApplyCoupon(ctx context.Context, req *models.ApplyCouponRequest) (*models.ApplyCouponResponse, error) {
	return m.applyFn(ctx, req)
}
func (m *mockCouponService) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, error) {
	return m.createFn(ctx, req)
}
func (m *mockCouponService) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	return nil, nil
}
func (m *mockCouponService) UpdateCoupon(ctx context.Context, id string, req *models.UpdateCouponRequest) (*models.Coupon, error) {
	return nil, nil
}
func (m *mockCouponService) DeleteCoupon(ctx context.Context, id string) error {
	return nil
}

type mockCartService struct {
	getFn func(ctx context.Context, userID string) (*models.CartView, error)
	addFn func(ctx context.Context, userID string, req *models.AddToCartRequest) (*models.CartView, error)
}

func (m *mockCartService) GetCart(ctx context.Context, userID string) (*models.CartView, error) {
	return m.getFn(ctx, userID)
}
func (m *mockCartService) AddItem(ctx context.Context, userID string, req *models.AddToCartRequest) (*models.CartView, error) {
	return m.addFn(ctx, userID, req)
}
func (m *mockCartService) UpdateItem(ctx context.Context, userID string, req *models.UpdateCartRequest) (*models.CartView, error) {
	return m.getFn(ctx, userID)
}
func (m *mockCartService) RemoveItem(ctx context.Context, userID, productID, size, color string) (*models.CartView, error) {
	return m.getFn(ctx, userID)
}
func (m *mockCartService) ClearCart(ctx context.Context, userID string) error {
	return nil
}

type mockUserService struct {
	listFn   func(ctx context.Context, search string, page, limit int) (*models.UserPage, error)
	toggleFn func(ctx context.Context, id string) (*models.BlockResult, error)
}

func (m *mockUserService) ListUsers(ctx context.Context, search string, page, limit int) (*models.UserPage, error) {
	return m.listFn(ctx, search, page, limit)
}
func (m *mockUserService) ToggleBlock(ctx context.Context, id string) (*models.BlockResult, error) {
	return m.toggleFn(ctx, id)
}
func (m *mockUserService) IsBlocked(ctx context.Context, userID string) (bool, error) {
	return false, nil
}
