package aws

import (
	"context"
	"fmt"
	"sort"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type cloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// MetricsClient publishes storefront metrics to CloudWatch. A nil or disabled
// client accepts every call and sends nothing, so callers never branch on it.
type MetricsClient struct {
	api       cloudWatchAPI
	namespace string
	enabled   bool
	now       func() time.Time
}

func NewMetricsClient(cfg sdkaws.Config, namespace string, enabled bool) *MetricsClient {
	if namespace == "" {
		namespace = "NoirMan"
	}
	return &MetricsClient{
		api:       cloudwatch.NewFromConfig(cfg),
		namespace: namespace,
		enabled:   enabled,
		now:       time.Now,
	}
}

func (m *MetricsClient) IsEnabled() bool {
	return m != nil && m.enabled
}

// PutMetric sends one datum. Dimensions are emitted sorted by name.
func (m *MetricsClient) PutMetric(ctx context.Context, name string, value float64, unit types.StandardUnit, dimensions map[string]string) error {
	if !m.IsEnabled() {
		return nil
	}

	datum := types.MetricDatum{
		MetricName: sdkaws.String(name),
		Value:      sdkaws.Float64(value),
		Unit:       unit,
		Timestamp:  sdkaws.Time(m.now()),
		Dimensions: toDimensions(dimensions),
	}
	if _, err := m.api.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  sdkaws.String(m.namespace),
		MetricData: []types.MetricDatum{datum},
	}); err != nil {
		return fmt.Errorf("put metric %s: %w", name, err)
	}
	return nil
}

func (m *MetricsClient) RecordCount(ctx context.Context, name string, dimensions map[string]string) error {
	return m.PutMetric(ctx, name, 1, types.StandardUnitCount, dimensions)
}

func (m *MetricsClient) RecordLatency(ctx context.Context, name string, d time.Duration, dimensions map[string]string) error {
	return m.PutMetric(ctx, name, float64(d.Milliseconds()), types.StandardUnitMilliseconds, dimensions)
}

func (m *MetricsClient) RecordValue(ctx context.Context, name string, value float64, dimensions map[string]string) error {
	return m.PutMetric(ctx, name, value, types.StandardUnitNone, dimensions)
}

func toDimensions(in map[string]string) []types.Dimension {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dims := make([]types.Dimension, 0, len(keys))
	for _, k := range keys {
		dims = append(dims, types.Dimension{Name: sdkaws.String(k), Value: sdkaws.String(in[k])})
	}
	return dims
}

// Metric names
const (
	MetricHTTPRequests = "HTTPRequests"
	MetricHTTPErrors   = "HTTPErrors"
	MetricHTTPLatency  = "HTTPLatency"

	MetricOrdersCreated     = "OrdersCreated"
	MetricOrdersFailed      = "OrdersFailed"
	MetricOrderValue        = "OrderValue"
	MetricPaymentSucceeded  = "PaymentSucceeded"
	MetricPaymentFailed     = "PaymentFailed"
	MetricCouponsRedeemed   = "CouponsRedeemed"
	MetricNotificationsSent = "NotificationsSent"
	MetricCacheHits         = "CacheHits"
	MetricCacheMisses       = "CacheMisses"
)
