package middleware

import (
	"strconv"
	"time"

	"github.com/erp/lifetime/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// httpMetrics holds the HTTP server instruments
type httpMetrics struct {
	requests *telemetry.Counter
	duration *telemetry.Histogram
}

// Metrics returns a middleware recording request counts and latencies
// labelled by method, route and status.
func Metrics(meter metric.Meter) (gin.HandlerFunc, error) {
	requests, err := telemetry.NewCounter(meter,
		"http_server_requests_total", "Total number of HTTP requests", "{request}")
	if err != nil {
		return nil, err
	}
	duration, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP request latency",
		Unit:        "s",
		Boundaries:  telemetry.SmallDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	m := &httpMetrics{requests: requests, duration: duration}
	return m.handle, nil
}

func (m *httpMetrics) handle(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	attrs := []attribute.KeyValue{
		attribute.String("method", c.Request.Method),
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(c.Writer.Status())),
	}
	ctx := c.Request.Context()
	m.requests.Inc(ctx, attrs...)
	m.duration.RecordDuration(ctx, time.Since(start), attrs...)
}
