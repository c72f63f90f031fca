package aws

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

type logsAPI interface {
	CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutRetentionPolicy(ctx context.Context, params *cloudwatchlogs.PutRetentionPolicyInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutRetentionPolicyOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// logRetentionDays applies to the storefront log group.
const logRetentionDays = 30

// CloudWatchLogsClient ships log lines to one log stream. It implements
// io.Writer so it can sit behind a zap core.
type CloudWatchLogsClient struct {
	client        logsAPI
	logGroupName  string
	logStreamName string

	mu            sync.Mutex
	sequenceToken *string
}

// NewCloudWatchLogsClient ensures the log group exists and opens a fresh
// stream named after the service and start time.
func NewCloudWatchLogsClient(ctx context.Context, cfg sdkaws.Config, logGroupName, serviceName string) (*CloudWatchLogsClient, error) {
	if logGroupName == "" {
		logGroupName = "/noirman/services"
	}

	return openLogStream(ctx, cloudwatchlogs.NewFromConfig(cfg), logGroupName,
		fmt.Sprintf("%s-%d", serviceName, time.Now().Unix()))
}

func openLogStream(ctx context.Context, api logsAPI, group, stream string) (*CloudWatchLogsClient, error) {
	c := &CloudWatchLogsClient{client: api, logGroupName: group, logStreamName: stream}
	if err := c.ensureLogGroup(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure log group: %w", err)
	}
	if _, err := c.client.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  sdkaws.String(c.logGroupName),
		LogStreamName: sdkaws.String(c.logStreamName),
	}); err != nil {
		return nil, fmt.Errorf("failed to create log stream: %w", err)
	}
	return c, nil
}

func (c *CloudWatchLogsClient) ensureLogGroup(ctx context.Context) error {
	_, err := c.client.CreateLogGroup(ctx, &cloudwatchlogs.CreateLogGroupInput{
		LogGroupName: sdkaws.String(c.logGroupName),
	})
	if err != nil {
		var existsErr *types.ResourceAlreadyExistsException
		if !errors.As(err, &existsErr) {
			return err
		}
	}

	_, err = c.client.PutRetentionPolicy(ctx, &cloudwatchlogs.PutRetentionPolicyInput{
		LogGroupName:    sdkaws.String(c.logGroupName),
		RetentionInDays: sdkaws.Int32(logRetentionDays),
	})
	if err != nil {
		return fmt.Errorf("set retention on %s: %w", c.logGroupName, err)
	}
	return nil
}

// Write sends p as one log event. Shipping failures are reported on stderr
// and never returned, so logging keeps working when CloudWatch does not.
func (c *CloudWatchLogsClient) Write(p []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	out, err := c.client.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  sdkaws.String(c.logGroupName),
		LogStreamName: sdkaws.String(c.logStreamName),
		SequenceToken: c.sequenceToken,
		LogEvents: []types.InputLogEvent{{
			Message:   sdkaws.String(strings.TrimRight(string(p), "\n")),
			Timestamp: sdkaws.Int64(time.Now().UnixMilli()),
		}},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "CloudWatch write error: %v\n", err)
		return len(p), nil
	}
	c.sequenceToken = out.NextSequenceToken
	return len(p), nil
}
