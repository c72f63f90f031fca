package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samim9090/noirman-ecommerce/cache"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewService defines the interface for product reviews.
type ReviewService interface {
	AddReview(ctx context.Context, who models.Identity, productID string, req *models.CreateReviewRequest) (*models.Review, error)
	ListReviews(ctx context.Context, productID string) ([]models.Review, error)
}

type reviewServiceImpl struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	cache    *cache.ProductCache
	now      func() time.Time
	logger   *zap.Logger
}

func NewReviewService(reviews repository.ReviewRepository, products repository.ProductRepository, productCache *cache.ProductCache, logger *zap.Logger) ReviewService {
	return &reviewServiceImpl{
		reviews:  reviews,
		products: products,
		cache:    productCache,
		now:      time.Now,
		logger:   logger,
	}
}

// AddReview stores the caller's review and recomputes the product's rating
// over all of its reviews.
func (s *reviewServiceImpl) AddReview(ctx context.Context, who models.Identity, productID string, req *models.CreateReviewRequest) (*models.Review, error) {
	id, err := uuid.Parse(productID)
	if err != nil {
		return nil, apperrors.Validation("Invalid product ID")
	}
	if _, err := s.products.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, apperrors.Internal("Failed to fetch product", err)
	}

	review := &models.Review{
		ProductID: id.String(),
		UserID:    who.UserID,
		Name:      who.Name,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
		CreatedAt: s.now().UTC(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, apperrors.ErrAlreadyReviewed
		}
		s.logger.Error("Failed to create review", zap.String("product_id", productID), zap.Error(err))
		return nil, apperrors.Internal("Failed to create review", err)
	}

	summary, err := s.reviews.Summarize(ctx, review.ProductID)
	if err != nil {
		return nil, apperrors.Internal("Failed to aggregate ratings", err)
	}
	ratings := summary.Average
	if err := s.products.UpdateRatings(ctx, id, ratings, summary.Count); err != nil {
		return nil, apperrors.Internal("Failed to update product ratings", err)
	}
	if s.cache != nil {
		s.cache.InvalidateProduct(ctx, review.ProductID)
	}

	s.logger.Info("Review added",
		zap.String("product_id", review.ProductID),
		zap.String("user_id", who.UserID),
		zap.Float64("ratings", ratings),
		zap.Int("num_reviews", summary.Count),
	)
	return review, nil
}

func (s *reviewServiceImpl) ListReviews(ctx context.Context, productID string) ([]models.Review, error) {
	id, err := uuid.Parse(productID)
	if err != nil {
		return nil, apperrors.Validation("Invalid product ID")
	}
	reviews, err := s.reviews.FindByProductID(ctx, id.String())
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch reviews", err)
	}
	return reviews, nil
}
