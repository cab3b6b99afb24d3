package account

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	sharedauth "github.com/Wayne-Yuw/toolscout-ai/internal/shared/auth"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/server/middleware"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/server/respond"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
	"github.com/Wayne-Yuw/toolscout-ai/internal/users"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/app/bind-phone", h.bindPhone)
}

type bindRequest struct {
	Username  string `json:"username" binding:"min=3,max=32"`
	Phone     string `json:"phone" binding:"min=6,max=20"`
	Nickname  string `json:"nickname" binding:"omitempty,max=32"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url"`
	Merge     bool   `json:"merge"`
}

func (r *bindRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Nickname = strings.TrimSpace(r.Nickname)
	r.AvatarURL = strings.TrimSpace(r.AvatarURL)
}

func (h *Handler) bindPhone(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		respond.Error(c, http.StatusUnauthorized, CodeUnauthenticated, "未登录", nil)
		return
	}
	if !session.NeedsBinding || session.OAuth == nil {
		respond.Error(c, http.StatusBadRequest, CodeBindingNotNeeded, "无需绑定", nil)
		return
	}

	var req bindRequest
	if err := respond.BindJSON(c, &req); err != nil {
		respond.InvalidInput(c, err)
		return
	}

	res, err := h.Svc.BindPhone(c.Request.Context(), *session.OAuth, BindInput{
		Username:  req.Username,
		Phone:     req.Phone,
		Nickname:  req.Nickname,
		AvatarURL: req.AvatarURL,
		Merge:     req.Merge,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrPhoneOAuthBound):
			respond.Error(c, http.StatusConflict, CodePhoneTakenOAuth, "该手机号已绑定其他第三方账号", nil)
		case errors.Is(err, ErrPhoneCanMerge):
			respond.Error(c, http.StatusConflict, CodePhoneTakenCanMerge, "该手机号已注册，可合并账号", nil)
		case errors.Is(err, ErrIdentityBound):
			respond.Error(c, http.StatusConflict, CodeOAuthAlreadyBound, "该第三方账号已绑定", nil)
		case errors.Is(err, users.ErrConflict):
			users.WriteConflict(c, err)
		default:
			telemetry.Error("account.bind_failed", map[string]any{
				"request_id": middleware.RequestIDFromContext(c),
				"provider":   session.OAuth.Provider,
				"error":      err.Error(),
			})
			respond.Error(c, http.StatusBadRequest, CodeBindFailed, "绑定失败", nil)
		}
		return
	}

	token, err := sharedauth.SignJWT(sharedauth.Linked(res.User.ID, res.User.IsAdmin))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}

	telemetry.Info("account.bound", map[string]any{
		"request_id": middleware.RequestIDFromContext(c),
		"user_id":    res.User.ID,
		"provider":   session.OAuth.Provider,
		"merged":     res.Merged,
	})
	body := gin.H{"ok": true, "userId": res.User.ID, "token": token}
	if res.Merged {
		body["merged"] = true
	}
	respond.OK(c, body)
}
