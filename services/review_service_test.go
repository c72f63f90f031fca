package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memReviews struct {
	reviews []models.Review
}

func (m *memReviews) Create(_ context.Context, review *models.Review) error {
	for _, r := range m.reviews {
		if r.UserID == review.UserID && r.ProductID == review.ProductID {
			return repository.ErrDuplicateReview
		}
	}
	review.ID = primitive.NewObjectID()
	m.reviews = append(m.reviews, *review)
	return nil
}

func (m *memReviews) FindByProductID(_ context.Context, productID string) ([]models.Review, error) {
	out := []models.Review{}
	for i := len(m.reviews) - 1; i >= 0; i-- {
		if m.reviews[i].ProductID == productID {
			out = append(out, m.reviews[i])
		}
	}
	return out, nil
}

func (m *memReviews) Summarize(_ context.Context, productID string) (models.RatingSummary, error) {
	var sum models.RatingSummary
	total := 0
	for _, r := range m.reviews {
		if r.ProductID == productID {
			total += r.Rating
			sum.Count++
		}
	}
	if sum.Count > 0 {
		sum.Average = float64(total) / float64(sum.Count)
	}
	return sum, nil
}

func TestReviewService_AddReviewUpdatesRatings(t *testing.T) {
	db := newMemDB()
	productID := seedShirt(db, 5)
	reviews := &memReviews{}
	svc := NewReviewService(reviews, memProducts{db}, nil, zap.NewNop())
	ctx := context.Background()

	for i, rating := range []int{5, 4, 4} {
		who := models.Identity{UserID: uuid.NewString(), Name: "Reviewer"}
		review, err := svc.AddReview(ctx, who, productID.String(), &models.CreateReviewRequest{Rating: rating, Comment: "Fits well"})
		require.NoError(t, err, "review %d", i)
		assert.False(t, review.ID.IsZero())
	}

	product := db.products[productID]
	assert.Equal(t, 3, product.NumReviews)
	assert.InDelta(t, 13.0/3.0, product.Ratings, 1e-9)

	listed, err := svc.ListReviews(ctx, productID.String())
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

func TestReviewService_OneReviewPerUser(t *testing.T) {
	db := newMemDB()
	productID := seedShirt(db, 5)
	svc := NewReviewService(&memReviews{}, memProducts{db}, nil, zap.NewNop())
	ctx := context.Background()
	req := &models.CreateReviewRequest{Rating: 5, Comment: "Great"}

	_, err := svc.AddReview(ctx, shopper, productID.String(), req)
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, shopper, productID.String(), req)

	assert.ErrorIs(t, err, apperrors.ErrAlreadyReviewed)
	assert.Equal(t, 1, db.products[productID].NumReviews)
}

func TestReviewService_UnknownProduct(t *testing.T) {
	svc := NewReviewService(&memReviews{}, memProducts{newMemDB()}, nil, zap.NewNop())
	ctx := context.Background()

	_, err := svc.AddReview(ctx, shopper, uuid.NewString(), &models.CreateReviewRequest{Rating: 3, Comment: "ok"})
	assert.ErrorIs(t, err, apperrors.ErrProductNotFound)

	_, err = svc.ListReviews(ctx, "bad-id")
	assert.ErrorIs(t, err, &apperrors.Error{Kind: apperrors.KindValidation})
}
