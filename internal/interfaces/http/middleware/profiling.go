package middleware

import (
	"context"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/tradeflow/backend/internal/infrastructure/telemetry"
)

// Profiling wraps each request in pyroscope labels for its route and
// method so CPU and allocation profiles can be split per endpoint.
// Unmatched routes and skipPaths are not labelled.
func Profiling(enabled bool, skipPaths ...string) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || slices.Contains(skipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		labels := telemetry.HTTPRequestLabels(route, c.Request.Method)
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
