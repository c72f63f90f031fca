package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

// MessageHandler processes one SQS message body. A non-nil error leaves the
// message on the queue so it is redelivered after the visibility timeout.
type MessageHandler func(ctx context.Context, body string) error

type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSQueue sends to and long-polls a single queue.
type SQSQueue struct {
	client   sqsAPI
	queueURL string
	logger   *zap.Logger
}

func NewSQSQueue(cfg sdkaws.Config, queueURL string, logger *zap.Logger) *SQSQueue {
	return &SQSQueue{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
		logger:   logger,
	}
}

// SendMessage sends a single message to the queue
func (q *SQSQueue) SendMessage(ctx context.Context, body string) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    sdkaws.String(q.queueURL),
		MessageBody: sdkaws.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// StartPolling runs until ctx is cancelled.
func (q *SQSQueue) StartPolling(ctx context.Context, handler MessageHandler) {
	q.logger.Info("SQS polling started", zap.String("queue", q.queueURL))
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("SQS polling stopped", zap.String("queue", q.queueURL))
			return
		default:
		}

		if err := q.pollOnce(ctx, handler); err != nil && ctx.Err() == nil {
			q.logger.Error("SQS receive error", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
		}
	}
}

func (q *SQSQueue) pollOnce(ctx context.Context, handler MessageHandler) error {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            sdkaws.String(q.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20,
		VisibilityTimeout:   30,
	})
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, msg := range out.Messages {
		if msg.Body == nil || msg.ReceiptHandle == nil {
			continue
		}
		if err := handler(ctx, *msg.Body); err != nil {
			q.logger.Warn("SQS message handling failed, leaving for redelivery",
				zap.String("message_id", sdkaws.ToString(msg.MessageId)),
				zap.Error(err),
			)
			continue
		}
		if _, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      sdkaws.String(q.queueURL),
			ReceiptHandle: msg.ReceiptHandle,
		}); err != nil {
			q.logger.Error("SQS delete failed", zap.Error(err))
		}
	}
	return nil
}
