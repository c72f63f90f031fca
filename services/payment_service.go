package services

import (
	"context"
	"time"

	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
	"github.com/samim9090/noirman-ecommerce/payment"
	aws_pkg "github.com/samim9090/noirman-ecommerce/pkg/aws"
	"github.com/samim9090/noirman-ecommerce/repository"
	"go.uber.org/zap"
)

// PaymentService defines the interface for card payment flows.
type PaymentService interface {
	CreateIntent(ctx context.Context, who models.Identity, amount float64) (*payment.Intent, error)
	ConfirmPayment(ctx context.Context, intentID string) (*payment.Intent, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentServiceImpl struct {
	gateway  payment.Gateway
	verifier payment.WebhookVerifier
	orders   repository.OrderRepository
	events   eventPublisher
	metrics  *aws_pkg.MetricsClient
	logger   *zap.Logger
}

func NewPaymentService(
	gateway payment.Gateway,
	verifier payment.WebhookVerifier,
	orders repository.OrderRepository,
	publisher aws_pkg.SNSPublisher,
	topic string,
	metrics *aws_pkg.MetricsClient,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		gateway:  gateway,
		verifier: verifier,
		orders:   orders,
		events:   newEventPublisher(publisher, topic, logger),
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *paymentServiceImpl) CreateIntent(ctx context.Context, who models.Identity, amount float64) (*payment.Intent, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	intent, err := s.gateway.CreateIntent(ctx, amount, map[string]string{"userId": who.UserID})
	if err != nil {
		s.logger.Error("Failed to create payment intent", zap.String("user_id", who.UserID), zap.Error(err))
		return nil, apperrors.Upstream("Failed to create payment intent", err)
	}

	s.logger.Info("Payment intent created",
		zap.String("payment_intent_id", intent.ID),
		zap.String("user_id", who.UserID),
		zap.Int64("amount_minor", intent.Amount),
	)
	return intent, nil
}

// ConfirmPayment checks an intent with the gateway. Anything but succeeded is
// rejected.
func (s *paymentServiceImpl) ConfirmPayment(ctx context.Context, intentID string) (*payment.Intent, error) {
	if intentID == "" {
		return nil, apperrors.ErrPaymentIntentMissing
	}

	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		s.logger.Error("Failed to retrieve payment intent", zap.String("payment_intent_id", intentID), zap.Error(err))
		return nil, apperrors.Upstream("Failed to verify payment", err)
	}

	if intent.Status != payment.StatusSucceeded {
		_ = s.metrics.RecordCount(ctx, aws_pkg.MetricPaymentFailed, map[string]string{"Status": intent.Status})
		return nil, apperrors.ErrPaymentNotCompleted.WithMessage("Payment not successful. Status: %s", intent.Status)
	}

	_ = s.metrics.RecordCount(ctx, aws_pkg.MetricPaymentSucceeded, nil)
	return intent, nil
}

// webhookTransitions maps gateway events to the payment status move they cause.
// Card orders are stored Paid, so only refunds move them in normal flow. The
// Pending rows re-sync card orders whose payment status an admin reset to
// Pending while a dispute or retry was settled at the gateway.
var webhookTransitions = map[string][2]string{
	payment.EventIntentSucceeded: {models.PaymentStatusPending, models.PaymentStatusPaid},
	payment.EventIntentFailed:    {models.PaymentStatusPending, models.PaymentStatusFailed},
	payment.EventChargeRefunded:  {models.PaymentStatusPaid, models.PaymentStatusRefunded},
}

// HandleWebhook verifies and applies a gateway notification. Unknown events
// are acknowledged without effect.
func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.verifier.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Rejected payment webhook", zap.Error(err))
		return apperrors.Validation("Webhook signature verification failed")
	}

	move, ok := webhookTransitions[event.Type]
	if !ok || event.IntentID == "" {
		s.logger.Debug("Ignoring payment webhook", zap.String("type", event.Type), zap.String("event_id", event.ID))
		return nil
	}

	orders, err := s.orders.TransitionPaymentByIntent(ctx, event.IntentID, move[0], move[1])
	if err != nil {
		s.logger.Error("Failed to apply payment webhook",
			zap.String("type", event.Type),
			zap.String("payment_intent_id", event.IntentID),
			zap.Error(err),
		)
		return apperrors.Internal("Failed to apply payment event", err)
	}

	for _, order := range orders {
		s.events.publish(ctx, models.EventPaymentUpdated, models.OrderStatusChangedEvent{
			Event:         models.EventPaymentUpdated,
			OrderID:       order.ID.String(),
			UserID:        order.UserID,
			OrderStatus:   order.OrderStatus,
			PaymentStatus: order.PaymentStatus,
			Timestamp:     time.Now().UTC(),
		})
	}

	s.logger.Info("Payment webhook applied",
		zap.String("type", event.Type),
		zap.String("payment_intent_id", event.IntentID),
		zap.Int("orders_updated", len(orders)),
	)
	return nil
}
