package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/money-coach/internal/infrastructure/observability"
)

// LoggingMiddleware writes one access line per request. Probe hits log at
// debug; 4xx at warn and 5xx at error. Query strings are never logged.
func LoggingMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		status := c.Writer.Status()

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		case untracedPaths[route]:
			event = logger.Debug()
		default:
			event = logger.Info()
		}
		if event == nil {
			return
		}

		if traceID := observability.GetTraceID(c.Request.Context()); traceID != "" {
			event = event.Str("trace_id", traceID).Str("span_id", observability.GetSpanID(c.Request.Context()))
		}
		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.ByType(gin.ErrorTypePrivate).String())
		}

		event.
			Str("request_id", RequestIDFromContext(c)).
			Str("method", c.Request.Method).
			Str("route", route).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}
