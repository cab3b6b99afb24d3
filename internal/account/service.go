package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sharedauth "github.com/Wayne-Yuw/toolscout-ai/internal/shared/auth"
	"github.com/Wayne-Yuw/toolscout-ai/internal/users"
)

// Accounts is the subset of the users service needed to bind identities.
type Accounts interface {
	Create(ctx context.Context, in users.CreateInput) (users.AppUser, error)
	FindByPhone(ctx context.Context, phone string) (users.AppUser, error)
	LinkOAuth(ctx context.Context, userID, provider, providerAccountID string) (users.AppUser, error)
}

type Service struct {
	Users Accounts
}

func NewService(accounts Accounts) *Service {
	return &Service{Users: accounts}
}

// BindInput is the profile a pending OAuth session completes.
type BindInput struct {
	Username  string
	Phone     string
	Nickname  string
	AvatarURL string
	Merge     bool
}

// BindResult is the account the identity ended up bound to.
type BindResult struct {
	User   users.AppUser
	Merged bool
}

// BindPhone binds identity to a local account. A phone owned by an unbound
// account is only merged when in.Merge is set; otherwise a new passwordless
// account is created for the identity.
func (s *Service) BindPhone(ctx context.Context, identity sharedauth.OAuthIdentity, in BindInput) (BindResult, error) {
	if s == nil || s.Users == nil {
		return BindResult{}, errors.New("account service not configured")
	}
	if identity.Provider == "" || identity.ProviderAccountID == "" {
		return BindResult{}, errors.New("oauth identity is required")
	}
	in.Phone = strings.TrimSpace(in.Phone)
	in.Username = strings.TrimSpace(in.Username)

	if res, handled, err := s.resolvePhone(ctx, identity, in); handled {
		return res, err
	}

	avatar := in.AvatarURL
	if avatar == "" {
		avatar = identity.Avatar
	}
	created, err := s.Users.Create(ctx, users.CreateInput{
		Username:          in.Username,
		Phone:             in.Phone,
		Nickname:          in.Nickname,
		Email:             identity.Email,
		AvatarURL:         avatar,
		Provider:          identity.Provider,
		ProviderAccountID: identity.ProviderAccountID,
	})
	if err != nil {
		switch users.ConflictField(err) {
		case users.FieldPhone:
			// Lost a race with another insert of the same phone.
			if res, handled, rerr := s.resolvePhone(ctx, identity, in); handled {
				return res, rerr
			}
		case users.FieldOAuth:
			return BindResult{}, ErrIdentityBound
		}
		return BindResult{}, err
	}
	return BindResult{User: created}, nil
}

// resolvePhone handles the case where in.Phone already has an owner.
func (s *Service) resolvePhone(ctx context.Context, identity sharedauth.OAuthIdentity, in BindInput) (BindResult, bool, error) {
	existing, err := s.Users.FindByPhone(ctx, in.Phone)
	if errors.Is(err, users.ErrNotFound) {
		return BindResult{}, false, nil
	}
	if err != nil {
		return BindResult{}, true, fmt.Errorf("find by phone: %w", err)
	}
	if existing.HasProvider() {
		return BindResult{}, true, ErrPhoneOAuthBound
	}
	if !in.Merge {
		return BindResult{}, true, ErrPhoneCanMerge
	}

	linked, err := s.Users.LinkOAuth(ctx, existing.ID, identity.Provider, identity.ProviderAccountID)
	switch {
	case errors.Is(err, users.ErrAlreadyLinked):
		return BindResult{}, true, ErrPhoneOAuthBound
	case users.ConflictField(err) == users.FieldOAuth:
		return BindResult{}, true, ErrIdentityBound
	case err != nil:
		return BindResult{}, true, fmt.Errorf("link oauth: %w", err)
	}
	return BindResult{User: linked, Merged: true}, true, nil
}
