package users

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/auth"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/server/middleware"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/server/respond"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
)

// Error codes returned by the auth endpoints.
const (
	CodePhoneTaken         = "PHONE_TAKEN"
	CodeUsernameTaken      = "USERNAME_TAKEN"
	CodeRegisterFailed     = "REGISTER_FAILED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeNotAdmin           = "NOT_ADMIN"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.register)
	rg.POST("/auth/login", h.login)
	rg.GET("/me", middleware.RequireSession(), h.me)
}

type registerRequest struct {
	Username  string `json:"username" binding:"min=3,max=32"`
	Phone     string `json:"phone" binding:"min=6,max=20"`
	Password  string `json:"password" binding:"min=6,max=128"`
	Nickname  string `json:"nickname" binding:"omitempty,max=32"`
	Email     string `json:"email" binding:"omitempty,email"`
	AvatarURL string `json:"avatar_url" binding:"omitempty,url"`
}

func (r *registerRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Nickname = strings.TrimSpace(r.Nickname)
	r.Email = strings.TrimSpace(r.Email)
	r.AvatarURL = strings.TrimSpace(r.AvatarURL)
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := respond.BindJSON(c, &req); err != nil {
		respond.InvalidInput(c, err)
		return
	}

	user, err := h.Svc.Create(c.Request.Context(), CreateInput{
		Username:  req.Username,
		Phone:     req.Phone,
		Password:  req.Password,
		Nickname:  req.Nickname,
		Email:     req.Email,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		if WriteConflict(c, err) {
			return
		}
		telemetry.Error("auth.register_failed", map[string]any{
			"request_id": middleware.RequestIDFromContext(c),
			"error":      err.Error(),
		})
		respond.Error(c, http.StatusBadRequest, CodeRegisterFailed, "注册失败", nil)
		return
	}

	telemetry.Info("auth.registered", map[string]any{
		"request_id": middleware.RequestIDFromContext(c),
		"user_id":    user.ID,
	})
	respond.OK(c, gin.H{
		"ok":   true,
		"user": gin.H{"id": user.ID, "username": user.Username, "phone": user.Phone},
	})
}

// WriteConflict writes a 409 for phone or username conflicts and reports
// whether it handled err.
func WriteConflict(c *gin.Context, err error) bool {
	if !errors.Is(err, ErrConflict) {
		return false
	}
	switch ConflictField(err) {
	case FieldPhone:
		respond.Error(c, http.StatusConflict, CodePhoneTaken, "手机号已存在", nil)
	case FieldUsername:
		respond.Error(c, http.StatusConflict, CodeUsernameTaken, "用户名已存在", nil)
	default:
		respond.Error(c, http.StatusConflict, "CONFLICT", err.Error(), nil)
	}
	return true
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	IDOrPhone  string `json:"idOrPhone"`
	Password   string `json:"password" binding:"required"`
	LoginType  string `json:"loginType" binding:"omitempty,oneof=user admin"`
}

func (r *loginRequest) Normalize() {
	r.Identifier = strings.TrimSpace(r.Identifier)
	if r.Identifier == "" {
		r.Identifier = strings.TrimSpace(r.IDOrPhone)
	}
	r.LoginType = strings.ToLower(strings.TrimSpace(r.LoginType))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := respond.BindJSON(c, &req); err != nil {
		respond.InvalidInput(c, err)
		return
	}

	user, err := h.Svc.Authenticate(c.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(c, http.StatusUnauthorized, CodeInvalidCredentials, "账号或密码错误", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "login failed", nil)
		return
	}
	if req.LoginType == "admin" && !user.IsAdmin {
		respond.Error(c, http.StatusForbidden, CodeNotAdmin, "非管理员账号", nil)
		return
	}

	token, err := auth.SignJWT(auth.Linked(user.ID, user.IsAdmin))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue session", nil)
		return
	}
	respond.OK(c, gin.H{"ok": true, "token": token, "user": user})
}

func (h *Handler) me(c *gin.Context) {
	session, _ := middleware.SessionFromContext(c)
	body := gin.H{
		"ok":           true,
		"needsBinding": session.NeedsBinding,
		"isAdmin":      session.IsAdmin,
	}
	if session.OAuth != nil {
		body["oauth"] = session.OAuth
	}
	if session.AppUserID == "" {
		respond.OK(c, body)
		return
	}

	user, err := h.Svc.GetByID(c.Request.Context(), session.AppUserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	body["appUserId"] = user.ID
	body["user"] = user
	respond.OK(c, body)
}
