package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/janhq/money-coach/internal/infrastructure/metrics"
)

// MetricsMiddleware counts requests and observes latency per route template,
// so conversation and message ids never become label values.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
