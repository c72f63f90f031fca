package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	aws_pkg "github.com/samim9090/noirman-ecommerce/pkg/aws"
)

// MetricsMiddleware records request count, latency and errors per route.
func MetricsMiddleware(metrics *aws_pkg.MetricsClient, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !metrics.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		dimensions := map[string]string{
			"Service": serviceName,
			"Method":  c.Request.Method,
			"Path":    route,
			"Status":  statusCodeToRange(status),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_ = metrics.RecordCount(ctx, aws_pkg.MetricHTTPRequests, dimensions)
			_ = metrics.RecordLatency(ctx, aws_pkg.MetricHTTPLatency, duration, dimensions)
			if status >= 400 {
				_ = metrics.RecordCount(ctx, aws_pkg.MetricHTTPErrors, dimensions)
			}
		}()
	}
}

func statusCodeToRange(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
