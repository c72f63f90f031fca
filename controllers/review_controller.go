package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/middleware"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/services"
)

type ReviewController struct {
	reviewService services.ReviewService
}

func NewReviewController(reviewService services.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

func (rc *ReviewController) GetReviews(c *gin.Context) {
	reviews, err := rc.reviewService.ListReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reviews": reviews})
}

func (rc *ReviewController) AddReview(c *gin.Context) {
	var req models.CreateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := rc.reviewService.AddReview(c.Request.Context(), middleware.GetIdentity(c), c.Param("id"), &req)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "review": review, "message": "Review added"})
}
