package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"gorm.io/gorm"
)

// StockDeduction is one guarded decrement performed while placing an order.
type StockDeduction struct {
	ProductID uuid.UUID
	Name      string
	Qty       int
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// PlaceOrder decrements stock for every deduction, claims the coupon (when
	// couponCode is set) and inserts the order in one transaction. Any failure
	// leaves stock, coupon usage and orders untouched.
	PlaceOrder(ctx context.Context, order *models.Order, deductions []StockDeduction, couponCode string) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByUserID(ctx context.Context, userID string) ([]models.Order, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	FindByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error)
	ExistsByPaymentIntentID(ctx context.Context, intentID string) (bool, error)
	UpdateStatus(ctx context.Context, order *models.Order) error
	TransitionPaymentByIntent(ctx context.Context, intentID, from, to string) ([]models.Order, error)
	Count(ctx context.Context) (int64, error)
	SumPaidRevenue(ctx context.Context) (int64, error)
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db, now: time.Now}
}

// decrementStock subtracts qty only when enough stock remains. Zero affected
// rows means the product is gone or short; stock is never clamped.
func decrementStock(tx *gorm.DB, id uuid.UUID, qty int) (bool, error) {
	result := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *GormOrderRepository) PlaceOrder(ctx context.Context, order *models.Order, deductions []StockDeduction, couponCode string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, d := range deductions {
			ok, err := decrementStock(tx, d.ProductID, d.Qty)
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.ErrInsufficientStock.WithMessage("Insufficient stock for %s", d.Name)
			}
		}

		if couponCode != "" {
			ok, err := claimCoupon(tx, couponCode, r.now())
			if err != nil {
				return err
			}
			if !ok {
				return apperrors.ErrCouponUsageExhausted
			}
		}

		return tx.Create(order).Error
	})
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByUserID returns every order of the user, newest first.
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAll retrieves all orders with pagination
func (r *GormOrderRepository) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("OrderItems").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) FindByIdempotencyKey(ctx context.Context, userID, key string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) ExistsByPaymentIntentID(ctx context.Context, intentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_intent_id = ?", intentID).
		Count(&count).Error
	return count > 0, err
}

// UpdateStatus persists the mutable fields of an order.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).
		Model(order).
		Select("order_status", "payment_status", "delivered_at", "updated_at").
		Updates(map[string]interface{}{
			"order_status":   order.OrderStatus,
			"payment_status": order.PaymentStatus,
			"delivered_at":   order.DeliveredAt,
			"updated_at":     r.now(),
		}).Error
}

// TransitionPaymentByIntent moves orders paid with intentID from one payment
// status to another and returns the orders that changed.
func (r *GormOrderRepository) TransitionPaymentByIntent(ctx context.Context, intentID, from, to string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("payment_intent_id = ? AND payment_status = ?", intentID, from).
			Find(&orders).Error; err != nil {
			return err
		}
		if len(orders) == 0 {
			return nil
		}
		if err := tx.Model(&models.Order{}).
			Where("payment_intent_id = ? AND payment_status = ?", intentID, from).
			UpdateColumn("payment_status", to).Error; err != nil {
			return err
		}
		for i := range orders {
			orders[i].PaymentStatus = to
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormOrderRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&total).Error
	return total, err
}

// SumPaidRevenue totals orders whose payment has been captured.
func (r *GormOrderRepository) SumPaidRevenue(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("payment_status = ?", models.PaymentStatusPaid).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&total).Error
	return total, err
}
