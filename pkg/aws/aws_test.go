package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwltypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	return &sns.PublishOutput{}, f.err
}

func TestSNSClient_Publish(t *testing.T) {
	api := &fakeSNS{}
	client := &SNSClient{client: api}

	require.NoError(t, client.Publish(context.Background(), "arn:aws:sns:ap-south-1:000000000000:order-events", []byte(`{"event":"order_placed"}`)))
	assert.Equal(t, "arn:aws:sns:ap-south-1:000000000000:order-events", sdkaws.ToString(api.input.TopicArn))
	assert.Equal(t, `{"event":"order_placed"}`, sdkaws.ToString(api.input.Message))

	assert.Error(t, client.Publish(context.Background(), "", []byte("x")))

	api.err = errors.New("throttled")
	assert.ErrorContains(t, client.Publish(context.Background(), "arn", []byte("x")), "throttled")
}

type fakeSQS struct {
	sent     []string
	messages []types.Message
	deleted  []string
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, sdkaws.ToString(params.MessageBody))
	return &sqs.SendMessageOutput{}, nil
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	out := &sqs.ReceiveMessageOutput{Messages: f.messages}
	f.messages = nil
	return out, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, sdkaws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSQueue_SendMessage(t *testing.T) {
	api := &fakeSQS{}
	q := &SQSQueue{client: api, queueURL: "http://localhost:4566/queue/notifications", logger: zap.NewNop()}

	require.NoError(t, q.SendMessage(context.Background(), `{"orderId":"o-1"}`))
	assert.Equal(t, []string{`{"orderId":"o-1"}`}, api.sent)
}

func TestSQSQueue_FailedMessagesStayOnQueue(t *testing.T) {
	api := &fakeSQS{messages: []types.Message{
		{MessageId: sdkaws.String("1"), ReceiptHandle: sdkaws.String("r1"), Body: sdkaws.String("ok")},
		{MessageId: sdkaws.String("2"), ReceiptHandle: sdkaws.String("r2"), Body: sdkaws.String("fail")},
		{MessageId: sdkaws.String("3"), ReceiptHandle: sdkaws.String("r3")},
	}}
	q := &SQSQueue{client: api, queueURL: "queue", logger: zap.NewNop()}

	var handled []string
	err := q.pollOnce(context.Background(), func(ctx context.Context, body string) error {
		handled = append(handled, body)
		if body == "fail" {
			return errors.New("smtp down")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"ok", "fail"}, handled)
	assert.Equal(t, []string{"r1"}, api.deleted)
}

func TestSQSQueue_StartPollingStopsOnCancel(t *testing.T) {
	q := &SQSQueue{client: &fakeSQS{}, queueURL: "queue", logger: zap.NewNop()}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		q.StartPolling(ctx, func(context.Context, string) error { return nil })
		close(done)
	}()
	<-done
}

func TestMetricsClient_DisabledIsNoop(t *testing.T) {
	var nilClient *MetricsClient
	assert.False(t, nilClient.IsEnabled())
	assert.NoError(t, nilClient.RecordCount(context.Background(), MetricOrdersCreated, nil))

	disabled := NewMetricsClient(sdkaws.Config{Region: "ap-south-1"}, "", false)
	assert.False(t, disabled.IsEnabled())
	assert.NoError(t, disabled.RecordValue(context.Background(), MetricOrderValue, 949, map[string]string{"Service": "storefront"}))
}

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestMetricsClient_SortsDimensions(t *testing.T) {
	api := &fakeCloudWatch{}
	m := &MetricsClient{api: api, namespace: "NoirMan", enabled: true, now: time.Now}

	require.NoError(t, m.RecordLatency(context.Background(), MetricHTTPLatency, 1500*time.Millisecond,
		map[string]string{"Service": "storefront", "Method": "GET", "Path": "/api/products"}))

	require.Len(t, api.inputs, 1)
	datum := api.inputs[0].MetricData[0]
	assert.Equal(t, "NoirMan", sdkaws.ToString(api.inputs[0].Namespace))
	assert.Equal(t, 1500.0, sdkaws.ToFloat64(datum.Value))
	var names []string
	for _, d := range datum.Dimensions {
		names = append(names, sdkaws.ToString(d.Name))
	}
	assert.Equal(t, []string{"Method", "Path", "Service"}, names)
}

type fakeSecrets struct {
	values map[string]string
	calls  int
}

func (f *fakeSecrets) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	v, ok := f.values[sdkaws.ToString(params.SecretId)]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: sdkaws.String(v)}, nil
}

func TestSecretsClient_GetSecretMapIsCached(t *testing.T) {
	api := &fakeSecrets{values: map[string]string{
		"storefront/DB_CREDENTIALS": `{"POSTGRES_USER":"noir","POSTGRES_PASSWORD":"s3cret"}`,
		"storefront/broken":         `not-json`,
	}}
	s := &SecretsClient{api: api, values: map[string]string{}}

	m, err := s.GetSecretMap(context.Background(), "storefront/DB_CREDENTIALS")
	require.NoError(t, err)
	assert.Equal(t, "noir", m["POSTGRES_USER"])

	_, err = s.GetSecretMap(context.Background(), "storefront/DB_CREDENTIALS")
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls)

	_, err = s.GetSecretMap(context.Background(), "storefront/broken")
	assert.ErrorContains(t, err, "not a JSON object")

	_, err = s.GetSecret(context.Background(), "missing")
	assert.Error(t, err)
}

type fakeLogs struct {
	groupExists bool
	putErr      error
	events      []string
	tokens      []*string
}

func (f *fakeLogs) CreateLogGroup(ctx context.Context, params *cloudwatchlogs.CreateLogGroupInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	if f.groupExists {
		return nil, &cwltypes.ResourceAlreadyExistsException{}
	}
	return &cloudwatchlogs.CreateLogGroupOutput{}, nil
}

func (f *fakeLogs) CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (f *fakeLogs) PutRetentionPolicy(ctx context.Context, params *cloudwatchlogs.PutRetentionPolicyInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutRetentionPolicyOutput, error) {
	return &cloudwatchlogs.PutRetentionPolicyOutput{}, nil
}

func (f *fakeLogs) PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.tokens = append(f.tokens, params.SequenceToken)
	f.events = append(f.events, sdkaws.ToString(params.LogEvents[0].Message))
	return &cloudwatchlogs.PutLogEventsOutput{NextSequenceToken: sdkaws.String("next")}, nil
}

func TestCloudWatchLogs_WriteShipsLines(t *testing.T) {
	api := &fakeLogs{groupExists: true}
	w, err := openLogStream(context.Background(), api, "/noirman/services", "storefront-1")
	require.NoError(t, err)

	n, err := w.Write([]byte("{\"msg\":\"http_request\"}\n"))
	require.NoError(t, err)
	assert.Equal(t, 23, n)
	_, _ = w.Write([]byte("second\n"))

	assert.Equal(t, []string{`{"msg":"http_request"}`, "second"}, api.events)
	assert.Nil(t, api.tokens[0])
	assert.Equal(t, "next", sdkaws.ToString(api.tokens[1]))
}

func TestCloudWatchLogs_WriteNeverFails(t *testing.T) {
	api := &fakeLogs{putErr: errors.New("throttled")}
	w, err := openLogStream(context.Background(), api, "/noirman/services", "storefront-1")
	require.NoError(t, err)

	n, err := w.Write([]byte("line"))
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestLoadAWSConfig_LocalStackEndpoint(t *testing.T) {
	t.Setenv("AWS_REGION", "ap-south-1")
	t.Setenv("AWS_ENDPOINT", "http://localhost:4566")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	cfg, err := LoadAWSConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ap-south-1", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test", creds.AccessKeyID)

	ep, err := cfg.EndpointResolverWithOptions.ResolveEndpoint("sqs", "ap-south-1")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4566", ep.URL)
}
