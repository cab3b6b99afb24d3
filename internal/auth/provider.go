package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	sharedauth "github.com/Wayne-Yuw/toolscout-ai/internal/shared/auth"
)

// Provider is one OAuth identity provider.
type Provider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
	parse       func(body []byte) (profile, error)
}

type profile struct {
	ID     string
	Email  string
	Avatar string
}

// Configured reports whether client credentials and a redirect URL are set.
func (p *Provider) Configured() bool {
	return p != nil && p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != "" && p.Config.RedirectURL != ""
}

// NewGoogleProvider returns the Google provider.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		Name: "google",
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		parse:       parseGoogle,
	}
}

// NewGitHubProvider returns the GitHub provider.
func NewGitHubProvider(clientID, clientSecret, redirectURL string) *Provider {
	return &Provider{
		Name: "github",
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		UserInfoURL: "https://api.github.com/user",
		parse:       parseGitHub,
	}
}

func parseGoogle(body []byte) (profile, error) {
	var info struct {
		Sub     string `json:"sub"`
		ID      string `json:"id"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return profile{}, err
	}
	// Some responses use "id" instead of "sub".
	if info.Sub == "" {
		info.Sub = info.ID
	}
	return profile{ID: info.Sub, Email: info.Email, Avatar: info.Picture}, nil
}

func parseGitHub(body []byte) (profile, error) {
	var info struct {
		ID        json.Number `json:"id"`
		Email     string      `json:"email"`
		AvatarURL string      `json:"avatar_url"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return profile{}, err
	}
	return profile{ID: info.ID.String(), Email: info.Email, Avatar: info.AvatarURL}, nil
}

// identity exchanges code for a token and loads the provider profile.
func (p *Provider) identity(ctx context.Context, code string) (sharedauth.OAuthIdentity, error) {
	token, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return sharedauth.OAuthIdentity{}, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return sharedauth.OAuthIdentity{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.Config.Client(ctx, token).Do(req)
	if err != nil {
		return sharedauth.OAuthIdentity{}, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return sharedauth.OAuthIdentity{}, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}

	var body json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return sharedauth.OAuthIdentity{}, fmt.Errorf("decode profile: %w", err)
	}
	prof, err := p.parse(body)
	if err != nil {
		return sharedauth.OAuthIdentity{}, fmt.Errorf("decode profile: %w", err)
	}
	if strings.TrimSpace(prof.ID) == "" {
		return sharedauth.OAuthIdentity{}, fmt.Errorf("profile has no account id")
	}
	return sharedauth.OAuthIdentity{
		Provider:          p.Name,
		ProviderAccountID: prof.ID,
		Email:             prof.Email,
		Avatar:            prof.Avatar,
	}, nil
}
