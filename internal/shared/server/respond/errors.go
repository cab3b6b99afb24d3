package respond

import (
	"github.com/gin-gonic/gin"

	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
)

// Error sends a flat error object: {"error": code, "message": message, ...extra}.
// Keys in extra are merged into the top level of the body.
func Error(c *gin.Context, status int, code, message string, extra map[string]any) {
	fields := map[string]any{
		"status":     status,
		"code":       code,
		"message":    message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_id"] = userID
	}
	telemetry.Error("http.error", fields)

	body := gin.H{"error": code}
	if message != "" {
		body["message"] = message
	}
	for k, v := range extra {
		body[k] = v
	}
	c.AbortWithStatusJSON(status, body)
}
