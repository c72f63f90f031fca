package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is stored in MongoDB; (user_id, product_id) is unique.
type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProductID string             `json:"productId" bson:"product_id"`
	UserID    string             `json:"userId" bson:"user_id"`
	Name      string             `json:"name" bson:"name"`
	Rating    int                `json:"rating" bson:"rating"`
	Title     string             `json:"title,omitempty" bson:"title,omitempty"`
	Comment   string             `json:"comment" bson:"comment"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title" binding:"max=120"`
	Comment string `json:"comment" binding:"required,max=2000"`
}

// RatingSummary is the result of aggregating a product's reviews.
type RatingSummary struct {
	Average float64 `bson:"average"`
	Count   int     `bson:"count"`
}
