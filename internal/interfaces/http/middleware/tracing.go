package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/infrastructure/logger"
	"github.com/tradeflow/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig configures the server span middleware
type TracingConfig struct {
	ServiceName    string
	TracerProvider trace.TracerProvider
	SkipPaths      []string
}

// Tracing starts a server span per request through otelgin. Requests to
// SkipPaths are not traced. A nil TracerProvider uses the global one.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	var opts []otelgin.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgin.WithTracerProvider(cfg.TracerProvider))
	}
	traced := otelgin.Middleware(cfg.ServiceName, opts...)

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}
		traced(c)
	}
}

// SpanEnricher tags the active server span with the request id and the
// trade being acted on, and marks it failed for 5xx responses. It must run
// after Tracing and RequestID.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if id := c.GetString(logger.RequestIDKey); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if id := c.Param("id"); shared.HasPrefix(id, shared.PrefixTrade) {
			span.SetAttributes(attribute.String(telemetry.SpanAttrTradeID, id))
		}

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusInternalServerError {
			return
		}
		msg := http.StatusText(status)
		if last := c.Errors.Last(); last != nil {
			msg = last.Error()
		}
		span.SetStatus(codes.Error, msg)
	}
}
