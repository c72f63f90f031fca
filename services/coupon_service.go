package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CouponService defines the interface for coupon business logic.
type CouponService interface {
	ApplyCoupon(ctx context.Context, req *models.ApplyCouponRequest) (*models.ApplyCouponResponse, error)
	CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, error)
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	UpdateCoupon(ctx context.Context, id string, req *models.UpdateCouponRequest) (*models.Coupon, error)
	DeleteCoupon(ctx context.Context, id string) error
}

type couponServiceImpl struct {
	repo   repository.CouponRepository
	now    func() time.Time
	logger *zap.Logger
}

func NewCouponService(repo repository.CouponRepository, logger *zap.Logger) CouponService {
	return &couponServiceImpl{repo: repo, now: time.Now, logger: logger}
}

// ApplyCoupon previews the discount for orderAmount. Usage is only counted
// when an order claiming the coupon is placed.
func (s *couponServiceImpl) ApplyCoupon(ctx context.Context, req *models.ApplyCouponRequest) (*models.ApplyCouponResponse, error) {
	coupon, err := s.findByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	discount, err := EvaluateCoupon(coupon, req.OrderAmount, s.now())
	if err != nil {
		return nil, err
	}

	return &models.ApplyCouponResponse{
		Success:         true,
		Code:            coupon.Code,
		Discount:        discount,
		DiscountPercent: coupon.DiscountPercent,
		Message:         fmt.Sprintf("Coupon applied! You save ₹%d", discount),
	}, nil
}

func (s *couponServiceImpl) findByCode(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.repo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrCouponNotFound
	}
	if err != nil {
		s.logger.Error("Failed to load coupon", zap.String("code", code), zap.Error(err))
		return nil, apperrors.Internal("Failed to load coupon", err)
	}
	return coupon, nil
}

func (s *couponServiceImpl) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, error) {
	if !req.ExpiresAt.After(s.now()) {
		return nil, apperrors.Validation("Expiry date must be in the future")
	}

	coupon := &models.Coupon{
		Code:            strings.ToUpper(strings.TrimSpace(req.Code)),
		DiscountPercent: req.DiscountPercent,
		MaxDiscount:     req.MaxDiscount,
		MinOrderAmount:  req.MinOrderAmount,
		ExpiresAt:       req.ExpiresAt,
		IsActive:        true,
		UsageLimit:      req.UsageLimit,
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrCouponExists
		}
		s.logger.Error("Failed to create coupon", zap.Error(err))
		return nil, apperrors.Internal("Failed to create coupon", err)
	}

	s.logger.Info("Coupon created", zap.String("code", coupon.Code), zap.Int("discount_percent", coupon.DiscountPercent))
	return coupon, nil
}

func (s *couponServiceImpl) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list coupons", zap.Error(err))
		return nil, apperrors.Internal("Failed to list coupons", err)
	}
	return coupons, nil
}

func (s *couponServiceImpl) UpdateCoupon(ctx context.Context, id string, req *models.UpdateCouponRequest) (*models.Coupon, error) {
	coupon, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DiscountPercent != nil {
		coupon.DiscountPercent = *req.DiscountPercent
	}
	if req.MaxDiscount != nil {
		coupon.MaxDiscount = *req.MaxDiscount
	}
	if req.MinOrderAmount != nil {
		coupon.MinOrderAmount = *req.MinOrderAmount
	}
	if req.ExpiresAt != nil {
		coupon.ExpiresAt = *req.ExpiresAt
	}
	if req.UsageLimit != nil {
		coupon.UsageLimit = *req.UsageLimit
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, coupon); err != nil {
		s.logger.Error("Failed to update coupon", zap.String("coupon_id", id), zap.Error(err))
		return nil, apperrors.Internal("Failed to update coupon", err)
	}
	return coupon, nil
}

func (s *couponServiceImpl) DeleteCoupon(ctx context.Context, id string) error {
	couponID, err := uuid.Parse(id)
	if err != nil {
		return apperrors.Validation("Invalid coupon ID")
	}
	if err := s.repo.Delete(ctx, couponID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("Coupon not found")
		}
		s.logger.Error("Failed to delete coupon", zap.String("coupon_id", id), zap.Error(err))
		return apperrors.Internal("Failed to delete coupon", err)
	}
	s.logger.Info("Coupon deleted", zap.String("coupon_id", id))
	return nil
}

func (s *couponServiceImpl) findByID(ctx context.Context, id string) (*models.Coupon, error) {
	couponID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.Validation("Invalid coupon ID")
	}
	coupon, err := s.repo.FindByID(ctx, couponID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("Coupon not found")
	}
	if err != nil {
		return nil, apperrors.Internal("Failed to load coupon", err)
	}
	return coupon, nil
}
