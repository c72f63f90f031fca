package controllers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/middleware"
	"github.com/samim9090/noirman-ecommerce/services"
)

// maxWebhookBody caps how much of a webhook payload is read.
const maxWebhookBody = 65536

type createIntentRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type confirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
}

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

func (pc *PaymentController) CreatePaymentIntent(c *gin.Context) {
	var req createIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ErrInvalidAmount)
		return
	}

	intent, err := pc.paymentService.CreateIntent(c.Request.Context(), middleware.GetIdentity(c), req.Amount)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
	})
}

func (pc *PaymentController) ConfirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.ErrPaymentIntentMissing)
		return
	}

	intent, err := pc.paymentService.ConfirmPayment(c.Request.Context(), req.PaymentIntentID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"paymentStatus": intent.Status,
		"amount":        intent.MajorAmount(),
	})
}

// Webhook needs the raw body for signature verification, so it never binds.
func (pc *PaymentController) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("Failed to read webhook body"))
		return
	}

	if err := pc.paymentService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
