package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samim9090/noirman-ecommerce/cache"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/notification"
	"github.com/samim9090/noirman-ecommerce/payment"
	aws_pkg "github.com/samim9090/noirman-ecommerce/pkg/aws"
	"github.com/samim9090/noirman-ecommerce/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// OrderService defines the interface for order placement and administration.
type OrderService interface {
	PlaceOrder(ctx context.Context, who models.Identity, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, who models.Identity, id string) (*models.Order, error)
	GetMyOrders(ctx context.Context, who models.Identity) ([]models.Order, error)
	ListOrders(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id string, req *models.UpdateOrderStatusRequest) (*models.Order, error)
	GetStats(ctx context.Context) (*models.OrderStats, error)
}

// OrderDeps wires an OrderService. Cache, Notifier, Publisher and Metrics are
// optional.
type OrderDeps struct {
	Orders      repository.OrderRepository
	Products    repository.ProductRepository
	Coupons     repository.CouponRepository
	Carts       repository.CartRepository
	Users       repository.UserRepository
	Idempotency repository.IdempotencyStore
	Gateway     payment.Gateway
	Notifier    notification.Dispatcher
	Publisher   aws_pkg.SNSPublisher
	Topic       string
	Cache       *cache.ProductCache
	Metrics     *aws_pkg.MetricsClient
	Shipping    ShippingPolicy
	Logger      *zap.Logger
}

type orderServiceImpl struct {
	orders      repository.OrderRepository
	products    repository.ProductRepository
	coupons     repository.CouponRepository
	carts       repository.CartRepository
	users       repository.UserRepository
	idempotency repository.IdempotencyStore
	gateway     payment.Gateway
	notifier    notification.Dispatcher
	events      eventPublisher
	cache       *cache.ProductCache
	metrics     *aws_pkg.MetricsClient
	shipping    ShippingPolicy
	tracer      trace.Tracer
	now         func() time.Time
	logger      *zap.Logger
}

func NewOrderService(deps OrderDeps) OrderService {
	return &orderServiceImpl{
		orders:      deps.Orders,
		products:    deps.Products,
		coupons:     deps.Coupons,
		carts:       deps.Carts,
		users:       deps.Users,
		idempotency: deps.Idempotency,
		gateway:     deps.Gateway,
		notifier:    deps.Notifier,
		events:      newEventPublisher(deps.Publisher, deps.Topic, deps.Logger),
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		shipping:    deps.Shipping,
		tracer:      otel.Tracer("order-service"),
		now:         time.Now,
		logger:      deps.Logger,
	}
}

// pricedOrder is the server-side computation of an order before it is stored.
type pricedOrder struct {
	items      []models.OrderItem
	deductions []repository.StockDeduction
	subtotal   int64
	discount   int64
	shipping   int64
	total      int64
	couponCode string
}

// PlaceOrder validates, prices and stores an order. Stock deductions, the
// coupon claim and the insert are committed together or not at all.
func (s *orderServiceImpl) PlaceOrder(ctx context.Context, who models.Identity, req *models.CreateOrderRequest) (*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "PlaceOrder", trace.WithAttributes(
		attribute.String("user.id", who.UserID),
		attribute.String("payment.method", req.PaymentMethod),
		attribute.Int("order.items", len(req.Items)),
	))
	defer span.End()

	start := s.now()
	order, replayed, err := s.placeOrder(ctx, who, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricOrdersFailed, map[string]string{"PaymentMethod": req.PaymentMethod})
		s.logger.Warn("Order placement failed",
			zap.String("user_id", who.UserID),
			zap.Error(err),
		)
		return nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID.String()), attribute.Bool("order.replayed", replayed))
	if replayed {
		return order, nil
	}

	s.afterPlacement(ctx, who, order)

	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricOrdersCreated, map[string]string{"PaymentMethod": order.PaymentMethod})
	_ = s.metrics.RecordValue(ctx, aws_pkg.MetricOrderValue, float64(order.TotalPrice), nil)
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", who.UserID),
		zap.Int64("total_price", order.TotalPrice),
		zap.String("payment_status", order.PaymentStatus),
		zap.Duration("took", s.now().Sub(start)),
	)
	return order, nil
}

func (s *orderServiceImpl) placeOrder(ctx context.Context, who models.Identity, req *models.CreateOrderRequest) (*models.Order, bool, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key != "" && s.idempotency != nil {
		existing, err := s.findByIdempotencyKey(ctx, who.UserID, key)
		if err != nil || existing != nil {
			return existing, existing != nil, err
		}

		acquired, err := s.idempotency.Acquire(ctx, who.UserID, key)
		if err != nil {
			// The unique (user_id, idempotency_key) index still prevents duplicates.
			s.logger.Warn("Idempotency guard unavailable", zap.Error(err))
		} else if !acquired {
			existing, err := s.findByIdempotencyKey(ctx, who.UserID, key)
			if err != nil || existing != nil {
				return existing, existing != nil, err
			}
			return nil, false, apperrors.ErrIdempotencyInFlight
		}
	}

	order, err := s.createOrder(ctx, who, req, key)
	if err != nil && key != "" && s.idempotency != nil {
		if relErr := s.idempotency.Release(context.WithoutCancel(ctx), who.UserID, key); relErr != nil {
			s.logger.Warn("Failed to release idempotency key", zap.Error(relErr))
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if existing, findErr := s.findByIdempotencyKey(ctx, who.UserID, key); findErr == nil && existing != nil {
				return existing, true, nil
			}
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, s.duplicateOrderError(ctx, req)
	}
	if err != nil {
		return nil, false, err
	}
	return order, false, nil
}

// duplicateOrderError names the unique index an insert collided with: the
// payment intent when another order now holds it, else the idempotency key
// of a placement that has not committed yet.
func (s *orderServiceImpl) duplicateOrderError(ctx context.Context, req *models.CreateOrderRequest) error {
	intentID := strings.TrimSpace(req.PaymentIntentID)
	if req.PaymentMethod == models.PaymentMethodStripe && intentID != "" {
		if used, err := s.orders.ExistsByPaymentIntentID(ctx, intentID); err == nil && used {
			return apperrors.ErrPaymentIntentUsed
		}
	}
	return apperrors.ErrIdempotencyInFlight
}

func (s *orderServiceImpl) findByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error) {
	order, err := s.orders.FindByIdempotencyKey(ctx, userID, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to look up order", err)
	}
	return order, nil
}

func (s *orderServiceImpl) createOrder(ctx context.Context, who models.Identity, req *models.CreateOrderRequest, key string) (*models.Order, error) {
	priced, err := s.price(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := compareTotals(req, priced); err != nil {
		return nil, err
	}

	now := s.now()
	order := &models.Order{
		ID:                uuid.New(),
		UserID:            who.UserID,
		OrderItems:        priced.items,
		ShippingAddress:   req.ShippingAddress,
		PaymentMethod:     req.PaymentMethod,
		PaymentStatus:     models.PaymentStatusPending,
		OrderStatus:       models.OrderStatusPlaced,
		Subtotal:          priced.subtotal,
		Discount:          priced.discount,
		ShippingPrice:     priced.shipping,
		TotalPrice:        priced.total,
		CouponCode:        priced.couponCode,
		EstimatedDelivery: now.Add(models.EstimatedDeliveryWindow),
	}
	if key != "" {
		order.IdempotencyKey = &key
	}

	if req.PaymentMethod == models.PaymentMethodStripe {
		intentID, err := s.verifyPayment(ctx, req.PaymentIntentID, priced.total)
		if err != nil {
			return nil, err
		}
		order.PaymentIntentID = &intentID
		order.PaymentStatus = models.PaymentStatusPaid
	}

	if err := s.orders.PlaceOrder(ctx, order, priced.deductions, priced.couponCode); err != nil {
		if order.PaymentIntentID != nil {
			s.logger.Error("Payment captured but order not stored",
				zap.String("payment_intent_id", *order.PaymentIntentID),
				zap.String("user_id", who.UserID),
				zap.Error(err),
			)
		}
		var appErr *apperrors.Error
		if errors.As(err, &appErr) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		s.logger.Error("Failed to store order", zap.Error(err))
		return nil, apperrors.Internal("Failed to create order", err)
	}
	return order, nil
}

// price validates the requested lines against the catalog and recomputes
// every amount server-side.
func (s *orderServiceImpl) price(ctx context.Context, req *models.CreateOrderRequest) (*pricedOrder, error) {
	if len(req.Items) == 0 {
		return nil, apperrors.ErrEmptyOrder
	}

	ids := make([]uuid.UUID, 0, len(req.Items))
	for _, item := range req.Items {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, apperrors.ErrProductNotFound.WithMessage("Product not found: %s", item.ProductID)
		}
		if item.Qty < 1 {
			return nil, apperrors.Validation("Quantity must be at least 1")
		}
		ids = append(ids, id)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch products", err)
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	priced := &pricedOrder{}
	wanted := make(map[uuid.UUID]int, len(ids))
	var productOrder []uuid.UUID

	for i, item := range req.Items {
		product, ok := byID[ids[i]]
		if !ok {
			return nil, apperrors.ErrProductNotFound.WithMessage("Product not found: %s", item.ProductID)
		}
		if _, seen := wanted[product.ID]; !seen {
			productOrder = append(productOrder, product.ID)
		}
		wanted[product.ID] += item.Qty
		if product.Stock < wanted[product.ID] {
			return nil, apperrors.ErrInsufficientStock.WithMessage("Insufficient stock for %s", product.Name)
		}

		unit := product.UnitPrice()
		if item.Price > 0 && item.Price != unit {
			return nil, apperrors.ErrTotalsMismatch.WithMessage("Price of %s has changed", product.Name)
		}

		priced.items = append(priced.items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.PrimaryImage(),
			Price:     unit,
			Qty:       item.Qty,
			Size:      item.Size,
			Color:     item.Color,
		})
		priced.subtotal += unit * int64(item.Qty)
	}

	for _, id := range productOrder {
		priced.deductions = append(priced.deductions, repository.StockDeduction{
			ProductID: id,
			Name:      byID[id].Name,
			Qty:       wanted[id],
		})
	}

	if code := strings.ToUpper(strings.TrimSpace(req.CouponCode)); code != "" {
		coupon, err := s.coupons.FindByCode(ctx, code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCouponNotFound
		}
		if err != nil {
			return nil, apperrors.Internal("Failed to load coupon", err)
		}
		discount, err := EvaluateCoupon(coupon, float64(priced.subtotal), s.now())
		if err != nil {
			return nil, err
		}
		priced.discount = discount
		priced.couponCode = coupon.Code
	}

	priced.shipping = s.shipping.Price(priced.subtotal)
	priced.total = priced.subtotal - priced.discount + priced.shipping
	return priced, nil
}

// compareTotals rejects requests whose asserted amounts differ from the
// recomputed ones. Zero means the caller did not assert that amount.
func compareTotals(req *models.CreateOrderRequest, p *pricedOrder) error {
	mismatch := func(field string, asserted, actual int64) error {
		return apperrors.ErrTotalsMismatch.WithMessage("Order %s changed: expected ₹%d, got ₹%d", field, actual, asserted)
	}
	if req.Subtotal > 0 && req.Subtotal != p.subtotal {
		return mismatch("subtotal", req.Subtotal, p.subtotal)
	}
	if req.Discount > 0 && req.Discount != p.discount {
		return mismatch("discount", req.Discount, p.discount)
	}
	if req.ShippingPrice > 0 && req.ShippingPrice != p.shipping {
		return mismatch("shipping", req.ShippingPrice, p.shipping)
	}
	if req.TotalPrice > 0 && req.TotalPrice != p.total {
		return mismatch("total", req.TotalPrice, p.total)
	}
	return nil
}

// verifyPayment confirms with the gateway that intentID succeeded for exactly
// total.
func (s *orderServiceImpl) verifyPayment(ctx context.Context, intentID string, total int64) (string, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return "", apperrors.ErrPaymentIntentMissing
	}

	used, err := s.orders.ExistsByPaymentIntentID(ctx, intentID)
	if err != nil {
		return "", apperrors.Internal("Failed to check payment", err)
	}
	if used {
		return "", apperrors.ErrPaymentIntentUsed
	}

	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return "", apperrors.Upstream("Payment gateway unavailable", err)
	}
	if intent.Status != payment.StatusSucceeded {
		return "", apperrors.ErrPaymentNotCompleted.WithMessage("Payment not successful. Status: %s", intent.Status)
	}
	if intent.Amount != payment.ToMinorUnits(float64(total)) {
		return "", apperrors.ErrPaymentAmountChanged
	}
	return intent.ID, nil
}

// afterPlacement runs the best-effort follow-ups of a committed order.
func (s *orderServiceImpl) afterPlacement(ctx context.Context, who models.Identity, order *models.Order) {
	ctx = context.WithoutCancel(ctx)

	if err := s.carts.ClearCart(ctx, who.UserID); err != nil {
		s.logger.Warn("Failed to clear cart after order", zap.String("order_id", order.ID.String()), zap.Error(err))
	}

	if s.cache != nil {
		ids := make([]string, 0, len(order.OrderItems))
		for _, item := range order.OrderItems {
			ids = append(ids, item.ProductID.String())
		}
		s.cache.InvalidateProduct(ctx, ids...)
	}

	s.events.publish(ctx, models.EventOrderPlaced, models.OrderPlacedEvent{
		Event:         models.EventOrderPlaced,
		OrderID:       order.ID.String(),
		UserID:        order.UserID,
		TotalPrice:    order.TotalPrice,
		PaymentMethod: order.PaymentMethod,
		PaymentStatus: order.PaymentStatus,
		CouponCode:    order.CouponCode,
		ItemCount:     len(order.OrderItems),
		Timestamp:     s.now().UTC(),
	})
	if order.CouponCode != "" {
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricCouponsRedeemed, map[string]string{"Code": order.CouponCode})
		s.events.publish(ctx, models.EventCouponRedeemed, models.CouponRedeemedEvent{
			Event:     models.EventCouponRedeemed,
			Code:      order.CouponCode,
			OrderID:   order.ID.String(),
			UserID:    order.UserID,
			Discount:  order.Discount,
			Timestamp: s.now().UTC(),
		})
	}

	s.notify(ctx, who, order)
}

func (s *orderServiceImpl) notify(ctx context.Context, who models.Identity, order *models.Order) {
	if s.notifier == nil {
		return
	}

	email, name := who.Email, who.Name
	if (email == "" || name == "") && s.users != nil {
		if user, err := s.users.FindByID(ctx, who.UserID); err == nil {
			if email == "" {
				email = user.Email
			}
			if name == "" {
				name = user.Name
			}
		}
	}
	if name == "" {
		name = order.ShippingAddress.FullName
	}

	err := s.notifier.SendOrderConfirmation(ctx, models.OrderConfirmation{
		OrderID:           order.ID.String(),
		Email:             email,
		Name:              name,
		Items:             order.OrderItems,
		Subtotal:          order.Subtotal,
		Discount:          order.Discount,
		ShippingPrice:     order.ShippingPrice,
		TotalPrice:        order.TotalPrice,
		PaymentMethod:     order.PaymentMethod,
		EstimatedDelivery: order.EstimatedDelivery,
		City:              order.ShippingAddress.City,
		Pincode:           order.ShippingAddress.Pincode,
	})
	if err != nil {
		s.logger.Warn("Order confirmation not sent", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

func (s *orderServiceImpl) loadOrder(ctx context.Context, id string) (*models.Order, error) {
	orderID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.ErrOrderNotFound
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrOrderNotFound
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch order", err)
	}
	return order, nil
}

// GetOrder returns the order to its owner or an admin.
func (s *orderServiceImpl) GetOrder(ctx context.Context, who models.Identity, id string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != who.UserID && !who.IsAdmin() {
		return nil, apperrors.Forbidden("Not authorized")
	}
	return order, nil
}

func (s *orderServiceImpl) GetMyOrders(ctx context.Context, who models.Identity) ([]models.Order, error) {
	orders, err := s.orders.FindByUserID(ctx, who.UserID)
	if err != nil {
		s.logger.Error("Failed to fetch user orders", zap.String("user_id", who.UserID), zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	orders, total, err := s.orders.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list orders", zap.Error(err))
		return nil, 0, apperrors.Internal("Failed to fetch orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, total, nil
}

// UpdateStatus applies an admin transition. Entering Delivered, including
// re-entering it, stamps deliveredAt with the current time.
func (s *orderServiceImpl) UpdateStatus(ctx context.Context, id string, req *models.UpdateOrderStatusRequest) (*models.Order, error) {
	if req.OrderStatus == "" && req.PaymentStatus == "" {
		return nil, apperrors.Validation("orderStatus or paymentStatus is required")
	}
	if req.PaymentStatus != "" && !models.ValidPaymentStatus(req.PaymentStatus) {
		return nil, apperrors.Validation(fmt.Sprintf("Invalid payment status: %s", req.PaymentStatus))
	}

	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.OrderStatus != "" {
		if !CanTransition(order.OrderStatus, req.OrderStatus) {
			return nil, apperrors.ErrInvalidTransition.WithMessage("Cannot move order from %s to %s", order.OrderStatus, req.OrderStatus)
		}
		order.OrderStatus = req.OrderStatus
		if req.OrderStatus == models.OrderStatusDelivered {
			deliveredAt := s.now()
			order.DeliveredAt = &deliveredAt
		}
	}
	if req.PaymentStatus != "" {
		order.PaymentStatus = req.PaymentStatus
	}

	if err := s.orders.UpdateStatus(ctx, order); err != nil {
		s.logger.Error("Failed to update order status", zap.String("order_id", id), zap.Error(err))
		return nil, apperrors.Internal("Failed to update order", err)
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", id),
		zap.String("order_status", order.OrderStatus),
		zap.String("payment_status", order.PaymentStatus),
	)
	s.events.publish(context.WithoutCancel(ctx), models.EventOrderStatusChanged, models.OrderStatusChangedEvent{
		Event:         models.EventOrderStatusChanged,
		OrderID:       order.ID.String(),
		UserID:        order.UserID,
		OrderStatus:   order.OrderStatus,
		PaymentStatus: order.PaymentStatus,
		Timestamp:     s.now().UTC(),
	})
	return order, nil
}

// GetStats runs the four dashboard aggregates concurrently.
func (s *orderServiceImpl) GetStats(ctx context.Context) (*models.OrderStats, error) {
	var stats models.OrderStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.orders.Count(gctx)
		stats.TotalOrders = n
		return err
	})
	g.Go(func() error {
		n, err := s.orders.SumPaidRevenue(gctx)
		stats.TotalRevenue = n
		return err
	})
	g.Go(func() error {
		n, err := s.users.Count(gctx)
		stats.TotalUsers = n
		return err
	})
	g.Go(func() error {
		n, err := s.products.Count(gctx)
		stats.TotalProducts = n
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to compute order stats", zap.Error(err))
		return nil, apperrors.Internal("Failed to fetch stats", err)
	}
	return &stats, nil
}
