package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samim9090/noirman-ecommerce/models"
	"gorm.io/gorm"
)

// CouponRepository defines the interface for coupon data access.
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	FindAll(ctx context.Context) ([]models.Coupon, error)
	Update(ctx context.Context, coupon *models.Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// GormCouponRepository implements CouponRepository using GORM.
type GormCouponRepository struct {
	db *gorm.DB
}

func NewGormCouponRepository(db *gorm.DB) CouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// FindByCode looks up a coupon by its exact uppercased code, active or not.
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *GormCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var coupon models.Coupon
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *GormCouponRepository) FindAll(ctx context.Context) ([]models.Coupon, error) {
	var coupons []models.Coupon
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, err
	}
	return coupons, nil
}

func (r *GormCouponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Save(coupon).Error
}

func (r *GormCouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Coupon{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// claimCoupon increments used_count only while the coupon is still redeemable.
// The limit is re-checked in the same statement so concurrent claims cannot
// overshoot it.
func claimCoupon(tx *gorm.DB, code string, now time.Time) (bool, error) {
	result := tx.Model(&models.Coupon{}).
		Where("code = ? AND is_active = ? AND expires_at > ? AND (usage_limit = 0 OR used_count < usage_limit)",
			strings.ToUpper(code), true, now).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
