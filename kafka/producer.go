package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes domain events to Kafka. It satisfies the same
// Publish(ctx, topic, message) contract as the SNS client so either can back
// the event bus.
type Producer struct {
	writer messageWriter
	logger *zap.Logger
}

func NewProducer(brokers []string, logger *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	logger.Info("Kafka producer initialized", zap.Strings("brokers", brokers))
	return &Producer{writer: w, logger: logger}
}

// InjectHeaders appends the trace context of ctx to headers.
func InjectHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}

// Publish writes message to topic with the caller's trace context attached.
func (p *Producer) Publish(ctx context.Context, topic string, message []byte) error {
	if topic == "" {
		return fmt.Errorf("empty topic")
	}
	msg := kafka.Message{
		Topic:   topic,
		Value:   message,
		Headers: InjectHeaders(ctx, nil),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish failed for topic %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	p.logger.Info("Closing Kafka producer")
	return p.writer.Close()
}
