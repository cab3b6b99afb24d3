package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if jobID := c.GetString("jobId"); jobID != "" {
			fields["job_id"] = jobID
		}
		if session, ok := SessionFromContext(c); ok {
			fields["needs_binding"] = session.NeedsBinding
		}
		telemetry.Info("request.complete", fields)
	}
}
