package notification

import (
	"context"
	"encoding/json"
	"fmt"

	aws_pkg "github.com/samim9090/noirman-ecommerce/pkg/aws"
	"github.com/samim9090/noirman-ecommerce/models"
	"go.uber.org/zap"
)

// Dispatcher hands off an order confirmation. Callers treat errors as
// loggable only; a failed notification never fails an order.
type Dispatcher interface {
	SendOrderConfirmation(ctx context.Context, confirmation models.OrderConfirmation) error
}

// EmailDispatcher renders and sends confirmations synchronously.
type EmailDispatcher struct {
	sender  EmailSender
	metrics *aws_pkg.MetricsClient
	logger  *zap.Logger
}

func NewEmailDispatcher(sender EmailSender, metrics *aws_pkg.MetricsClient, logger *zap.Logger) *EmailDispatcher {
	return &EmailDispatcher{sender: sender, metrics: metrics, logger: logger}
}

func (d *EmailDispatcher) SendOrderConfirmation(ctx context.Context, c models.OrderConfirmation) error {
	if c.Email == "" {
		return fmt.Errorf("order %s has no recipient email", c.OrderID)
	}

	body, err := RenderConfirmation(c)
	if err != nil {
		return err
	}

	result, err := d.sender.SendEmail(ctx, c.Email, ConfirmationSubject(c.OrderID), body)
	if err != nil {
		return fmt.Errorf("send confirmation for order %s: %w", c.OrderID, err)
	}

	d.logger.Info("Order confirmation sent",
		zap.String("order_id", c.OrderID),
		zap.String("message_id", result.MessageID),
	)
	_ = d.metrics.RecordCount(ctx, aws_pkg.MetricNotificationsSent, map[string]string{"Channel": "email"})
	return nil
}

// HandleMessage is the queue consumer entry point for confirmations queued by
// QueueDispatcher.
func (d *EmailDispatcher) HandleMessage(ctx context.Context, body string) error {
	var c models.OrderConfirmation
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		// Poison message; drop it instead of redelivering forever.
		d.logger.Error("Discarding malformed confirmation message", zap.Error(err))
		return nil
	}
	return d.SendOrderConfirmation(ctx, c)
}

// MessageSender is the send half of a queue.
type MessageSender interface {
	SendMessage(ctx context.Context, body string) error
}

// QueueDispatcher enqueues confirmations for a background consumer.
type QueueDispatcher struct {
	queue  MessageSender
	logger *zap.Logger
}

func NewQueueDispatcher(queue MessageSender, logger *zap.Logger) *QueueDispatcher {
	return &QueueDispatcher{queue: queue, logger: logger}
}

func (d *QueueDispatcher) SendOrderConfirmation(ctx context.Context, c models.OrderConfirmation) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}
	if err := d.queue.SendMessage(ctx, string(payload)); err != nil {
		return fmt.Errorf("enqueue confirmation for order %s: %w", c.OrderID, err)
	}
	d.logger.Debug("Order confirmation queued", zap.String("order_id", c.OrderID))
	return nil
}
