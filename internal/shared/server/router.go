package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Wayne-Yuw/toolscout-ai/internal/account"
	"github.com/Wayne-Yuw/toolscout-ai/internal/analyze"
	oauth "github.com/Wayne-Yuw/toolscout-ai/internal/auth"
	"github.com/Wayne-Yuw/toolscout-ai/internal/health"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/config"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/metrics"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/server/middleware"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/server/respond"
	"github.com/Wayne-Yuw/toolscout-ai/internal/users"
)

// Rate limit groups.
const (
	groupAnalyze = "analyze"
	groupAuth    = "auth"
)

// RouterDeps carries the handlers mounted under /api. Nil handlers are skipped.
type RouterDeps struct {
	Config         config.Config
	AnalyzeHandler *analyze.Handler
	UserHandler    *users.Handler
	AccountHandler *account.Handler
	OAuth          *oauth.Service
	HealthHandler  *health.Handler
	Limiter        *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rateLimitRules(deps.Config),
			GroupFor: rateLimitGroup,
			Limiter:  deps.Limiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	if deps.AnalyzeHandler != nil {
		deps.AnalyzeHandler.RegisterRoutes(api)
	}
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(api)
	}
	if deps.OAuth != nil {
		deps.OAuth.RegisterRoutes(api)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(api)
	}
	if deps.HealthHandler != nil {
		deps.HealthHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})
	return r
}

func rateLimitRules(cfg config.Config) map[string]middleware.RateLimitRule {
	rules := map[string]middleware.RateLimitRule{}
	if cfg.AnalyzeRPM > 0 {
		rules[groupAnalyze] = middleware.PerMinute(cfg.AnalyzeRPM)
	}
	if cfg.AuthRPM > 0 {
		rules[groupAuth] = middleware.PerMinute(cfg.AuthRPM)
	}
	return rules
}

// rateLimitGroup limits starting analyses and the credential endpoints. Polls
// and OAuth redirects are not limited.
func rateLimitGroup(c *gin.Context) string {
	path := c.Request.URL.Path
	switch {
	case c.Request.Method == http.MethodPost && path == "/api/analyze":
		return groupAnalyze
	case c.Request.Method == http.MethodPost && (strings.HasPrefix(path, "/api/auth/") || path == "/api/app/bind-phone"):
		return groupAuth
	default:
		return "none"
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
