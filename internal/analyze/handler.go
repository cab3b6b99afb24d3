package analyze

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Wayne-Yuw/toolscout-ai/internal/fetcher"
	"github.com/Wayne-Yuw/toolscout-ai/internal/jobs"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/server/middleware"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/server/respond"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
)

// Handler wires HTTP handlers to the analyze service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the analyze routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.start)
	rg.GET("/analyze", h.get)
}

type startRequest struct {
	URL string `json:"url"`
}

func (h *Handler) start(c *gin.Context) {
	var req startRequest
	// A missing or malformed body is treated as a missing url.
	_ = c.ShouldBindJSON(&req)
	url := req.URL
	if err := fetcher.ValidateURL(url); err != nil {
		respond.JSON(c, http.StatusBadRequest, gin.H{"error": "invalid_url"})
		return
	}

	started, err := h.Svc.Start(c.Request.Context(), url, middleware.RequestIDFromContext(c))
	if started.JobID != "" {
		c.Set("jobId", started.JobID)
	}
	if err != nil {
		switch {
		case errors.Is(err, fetcher.ErrInvalidURL):
			respond.JSON(c, http.StatusBadRequest, gin.H{"error": "invalid_url"})
		case errors.Is(err, jobs.ErrQueueFull):
			respond.Error(c, http.StatusServiceUnavailable, "queue_full", "", nil)
		default:
			telemetry.Error("analyze.start_failed", map[string]any{"url": url, "error": err.Error()})
			respond.JSON(c, http.StatusInternalServerError, gin.H{"error": errorMessage(err)})
		}
		return
	}

	respond.OK(c, gin.H{
		"ok":      true,
		"jobId":   started.JobID,
		"url":     started.URL,
		"title":   started.Title,
		"snippet": started.Snippet,
	})
}

func (h *Handler) get(c *gin.Context) {
	id := strings.TrimSpace(c.Query("id"))
	if id == "" {
		id = strings.TrimSpace(c.Query("jobId"))
	}
	if id == "" {
		respond.JSON(c, http.StatusBadRequest, gin.H{"ok": false, "error": "missing_job_id"})
		return
	}
	c.Set("jobId", id)

	job, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			respond.JSON(c, http.StatusNotFound, gin.H{"ok": false, "error": "job_not_found"})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load job", nil)
		return
	}

	body := gin.H{"ok": true, "id": job.ID, "status": job.Status}
	if job.Model != "" {
		body["model"] = job.Model
	}
	if job.Analysis != "" {
		body["analysis"] = job.Analysis
	}
	if job.Error != "" {
		body["error"] = job.Error
	}
	respond.OK(c, body)
}

func errorMessage(err error) string {
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "internal_error"
}
