package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/auth"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/server/respond"
)

const (
	userIDKey  = "userId"
	sessionKey = "session"
)

// Auth parses an optional Bearer session token. Requests without a token pass
// through anonymously; a malformed or invalid token is rejected.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "UNAUTHENTICATED", "missing or invalid token", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "UNAUTHENTICATED", "missing or invalid token", nil)
			return
		}

		claims, err := auth.VerifyJWT(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "UNAUTHENTICATED", "missing or invalid token", nil)
			return
		}

		c.Set(sessionKey, claims)
		c.Set(userIDKey, claims.Owner())
		c.Next()
	}
}

// RequireSession rejects requests that carry no valid session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := SessionFromContext(c); !ok {
			respond.Error(c, http.StatusUnauthorized, "UNAUTHENTICATED", "未登录", nil)
			return
		}
		c.Next()
	}
}

// SessionFromContext returns the claims stored by the auth middleware.
func SessionFromContext(c *gin.Context) (auth.Claims, bool) {
	if c == nil {
		return auth.Claims{}, false
	}
	val, ok := c.Get(sessionKey)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := val.(auth.Claims)
	return claims, ok
}

// UserIDFromContext fetches the session owner set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
