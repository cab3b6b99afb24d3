package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/server/respond"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/debug/health", h.health)
}

func (h *Handler) health(c *gin.Context) {
	report := h.Svc.Check(c.Request.Context())
	if !report.OK {
		telemetry.Error("health.db_failed", map[string]any{"error": report.DB["error"]})
		respond.JSON(c, http.StatusInternalServerError, report)
		return
	}
	respond.OK(c, report)
}
