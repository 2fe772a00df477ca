package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tradeflow/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// routeUnmatched labels requests that matched no route
const routeUnmatched = "unmatched"

// body sizes in bytes, 100B to 1MB (the default body limit)
var sizeBuckets = []float64{100, 500, 1e3, 5e3, 1e4, 5e4, 1e5, 5e5, 1e6}

type httpMetrics struct {
	requests *telemetry.Counter
	latency  *telemetry.Histogram
	reqSize  *telemetry.Histogram
	respSize *telemetry.Histogram
	inFlight *telemetry.Gauge
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	in := telemetry.NewInstruments(meter)
	m := &httpMetrics{
		requests: in.Counter("http_server_request_total", "HTTP requests by route and status", "{request}"),
		latency:  in.Histogram("http_server_request_duration_seconds", "HTTP request latency", "s", telemetry.HTTPDurationBuckets),
		reqSize:  in.Histogram("http_server_request_size_bytes", "HTTP request body size", "By", sizeBuckets),
		respSize: in.Histogram("http_server_response_size_bytes", "HTTP response body size", "By", sizeBuckets),
		inFlight: in.Gauge("http_server_active_requests", "HTTP requests in flight", "{request}"),
	}
	return m, in.Err()
}

// HTTPMetrics records request count, latency, body sizes and in-flight
// requests. Routes are labelled by their pattern, never the raw path, so
// trade ids do not explode cardinality. A nil meter disables it.
func HTTPMetrics(meter metric.Meter, logger *zap.Logger) gin.HandlerFunc {
	if meter == nil {
		return passThrough
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		if logger != nil {
			logger.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = routeUnmatched
		}
		attrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		}

		done := m.inFlight.Track(ctx, attrs...)
		c.Next()
		done()

		m.requests.Inc(ctx, append(attrs, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))...)
		m.latency.RecordDuration(ctx, time.Since(start), attrs...)
		if n := c.Request.ContentLength; n > 0 {
			m.reqSize.Record(ctx, float64(n), attrs...)
		}
		if n := c.Writer.Size(); n > 0 {
			m.respSize.Record(ctx, float64(n), attrs...)
		}
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}
