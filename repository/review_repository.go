package repository

import (
	"context"
	"errors"

	"github.com/samim9090/noirman-ecommerce/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateReview is returned when the user already reviewed the product.
var ErrDuplicateReview = errors.New("review already exists")

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	FindByProductID(ctx context.Context, productID string) ([]models.Review, error)
	Summarize(ctx context.Context, productID string) (models.RatingSummary, error)
}

// MongoReviewRepository stores reviews in a MongoDB collection.
type MongoReviewRepository struct {
	collection *mongo.Collection
}

func NewMongoReviewRepository(db *mongo.Database) *MongoReviewRepository {
	return &MongoReviewRepository{collection: db.Collection("reviews")}
}

// EnsureIndexes creates the one-review-per-user-per-product index.
func (r *MongoReviewRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_user_product"),
		},
		{
			Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	return err
}

func (r *MongoReviewRepository) Create(ctx context.Context, review *models.Review) error {
	res, err := r.collection.InsertOne(ctx, review)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateReview
	}
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		review.ID = id
	}
	return nil
}

// FindByProductID returns the product's reviews, newest first.
func (r *MongoReviewRepository) FindByProductID(ctx context.Context, productID string) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"product_id": productID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reviews := []models.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Summarize computes the mean rating and count over every review of the product.
func (r *MongoReviewRepository) Summarize(ctx context.Context, productID string) (models.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"product_id": productID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return models.RatingSummary{}, err
	}
	defer cursor.Close(ctx)

	var summary models.RatingSummary
	if cursor.Next(ctx) {
		if err := cursor.Decode(&summary); err != nil {
			return models.RatingSummary{}, err
		}
	}
	return summary, cursor.Err()
}
