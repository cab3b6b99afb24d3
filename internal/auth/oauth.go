package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	sharedauth "github.com/Wayne-Yuw/toolscout-ai/internal/shared/auth"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/server/respond"
	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/telemetry"
	"github.com/Wayne-Yuw/toolscout-ai/internal/users"
)

// AccountFinder resolves a provider identity to a local account.
type AccountFinder interface {
	FindByOAuth(ctx context.Context, provider, providerAccountID string) (users.AppUser, error)
}

// Service runs the OAuth redirect flow and decides whether the identity is
// already linked to a local account.
type Service struct {
	providers        map[string]*Provider
	accounts         AccountFinder
	uiRedirect       string
	completeRedirect string
	stateTTL         time.Duration
	states           *stateStore
}

// NewService builds a Service. Providers without credentials are kept but
// answer 500 auth_not_configured.
func NewService(accounts AccountFinder, uiRedirect, completeRedirect string, providers ...*Provider) *Service {
	byName := make(map[string]*Provider, len(providers))
	for _, p := range providers {
		byName[p.Name] = p
	}
	return &Service{
		providers:        byName,
		accounts:         accounts,
		uiRedirect:       uiRedirect,
		completeRedirect: completeRedirect,
		stateTTL:         5 * time.Minute,
		states:           newStateStore(),
	}
}

// RegisterRoutes attaches the OAuth routes.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/auth/oauth/:provider/start", s.start)
	rg.GET("/auth/oauth/:provider/callback", s.callback)
}

// Resolve builds the session for a verified identity: linked when a local
// account owns it, pending binding otherwise.
func (s *Service) Resolve(ctx context.Context, identity sharedauth.OAuthIdentity) (sharedauth.Claims, error) {
	user, err := s.accounts.FindByOAuth(ctx, identity.Provider, identity.ProviderAccountID)
	switch {
	case err == nil:
		return sharedauth.Linked(user.ID, user.IsAdmin), nil
	case errors.Is(err, users.ErrNotFound):
		return sharedauth.PendingBinding(identity), nil
	default:
		return sharedauth.Claims{}, fmt.Errorf("find oauth account: %w", err)
	}
}

func (s *Service) provider(c *gin.Context) (*Provider, bool) {
	p, ok := s.providers[c.Param("provider")]
	if !ok {
		respond.Error(c, http.StatusNotFound, "unknown_provider", "unknown oauth provider", nil)
		return nil, false
	}
	if !p.Configured() {
		respond.Error(c, http.StatusInternalServerError, "auth_not_configured", p.Name+" auth not configured", nil)
		return nil, false
	}
	return p, true
}

func (s *Service) start(c *gin.Context) {
	p, ok := s.provider(c)
	if !ok {
		return
	}
	state := uuid.NewString()
	s.states.put(state, p.Name, time.Now().Add(s.stateTTL))
	c.Redirect(http.StatusFound, p.Config.AuthCodeURL(state, oauth2.AccessTypeOnline))
}

func (s *Service) callback(c *gin.Context) {
	p, ok := s.provider(c)
	if !ok {
		return
	}
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "missing state or code", nil)
		return
	}
	if !s.states.consume(state, p.Name) {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid or expired state", nil)
		return
	}

	ctx := c.Request.Context()
	identity, err := p.identity(ctx, code)
	if err != nil {
		telemetry.Error("oauth.identity_failed", map[string]any{"provider": p.Name, "error": err.Error()})
		respond.Error(c, http.StatusBadGateway, "auth_failed", "failed to fetch user profile", nil)
		return
	}

	claims, err := s.Resolve(ctx, identity)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to resolve account", nil)
		return
	}
	token, err := sharedauth.SignJWT(claims)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue token", nil)
		return
	}

	target := s.uiRedirect
	if claims.NeedsBinding {
		target = s.completeRedirect
	}
	redirectURL, err := appendToken(target, token)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to redirect", nil)
		return
	}

	telemetry.Info("oauth.callback", map[string]any{
		"provider":      p.Name,
		"needs_binding": claims.NeedsBinding,
		"user_id":       claims.Owner(),
	})
	c.Redirect(http.StatusFound, redirectURL)
}

func appendToken(rawURL, token string) (string, error) {
	if rawURL == "" {
		return "", errors.New("redirect url required")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
