package services

import (
	"context"
	"encoding/json"

	aws_pkg "github.com/samim9090/noirman-ecommerce/pkg/aws"
	"go.uber.org/zap"
)

// eventPublisher publishes JSON events to one topic. A nil publisher or empty
// topic turns publishing into a logged no-op; failures are logged only.
type eventPublisher struct {
	client aws_pkg.SNSPublisher
	topic  string
	logger *zap.Logger
}

func newEventPublisher(client aws_pkg.SNSPublisher, topic string, logger *zap.Logger) eventPublisher {
	return eventPublisher{client: client, topic: topic, logger: logger}
}

func (p eventPublisher) publish(ctx context.Context, name string, event interface{}) {
	if p.client == nil || p.topic == "" {
		p.logger.Debug("Event bus not configured, skipping event", zap.String("event", name))
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.String("event", name), zap.Error(err))
		return
	}

	if err := p.client.Publish(ctx, p.topic, payload); err != nil {
		p.logger.Error("Failed to publish event", zap.String("event", name), zap.Error(err))
		return
	}
	p.logger.Info("Published event", zap.String("event", name))
}
