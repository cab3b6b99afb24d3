package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/util"
)

// BcryptCost matches the cost used for existing password hashes.
const BcryptCost = 10

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// CreateInput describes a new account. Password is empty for OAuth-bound accounts.
type CreateInput struct {
	Username          string
	Phone             string
	Password          string
	Nickname          string
	Email             string
	AvatarURL         string
	Provider          string
	ProviderAccountID string
}

// Create inserts a user with default nickname and avatar. Phone and username
// are pre-checked for a friendly conflict; the unique constraints remain the
// authority under concurrent inserts.
func (s *Service) Create(ctx context.Context, in CreateInput) (AppUser, error) {
	if s == nil || s.Repo == nil {
		return AppUser{}, errors.New("users service not configured")
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Username == "" || in.Phone == "" {
		return AppUser{}, errors.New("username and phone are required")
	}

	if _, err := s.Repo.FindByPhone(ctx, in.Phone); err == nil {
		return AppUser{}, conflict(FieldPhone)
	} else if !errors.Is(err, ErrNotFound) {
		return AppUser{}, err
	}
	if _, err := s.Repo.FindByUsername(ctx, in.Username); err == nil {
		return AppUser{}, conflict(FieldUsername)
	} else if !errors.Is(err, ErrNotFound) {
		return AppUser{}, err
	}

	var hash string
	if in.Password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(in.Password), BcryptCost)
		if err != nil {
			return AppUser{}, fmt.Errorf("hash password: %w", err)
		}
		hash = string(b)
	}
	nickname := in.Nickname
	if nickname == "" {
		nickname = "用户" + util.MaskPhone(in.Phone)
	}
	avatar := in.AvatarURL
	if avatar == "" {
		avatar = util.DefaultAvatarURL(in.Username)
	}

	return s.Repo.Create(ctx, NewUser{
		Username:          in.Username,
		Phone:             in.Phone,
		PasswordHash:      hash,
		Nickname:          nickname,
		Email:             in.Email,
		AvatarURL:         avatar,
		Provider:          in.Provider,
		ProviderAccountID: in.ProviderAccountID,
	})
}

// Authenticate resolves identifier as phone or username and checks the password.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (AppUser, error) {
	if s == nil || s.Repo == nil {
		return AppUser{}, errors.New("users service not configured")
	}
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return AppUser{}, ErrInvalidCredentials
	}
	user, err := s.Repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AppUser{}, ErrInvalidCredentials
		}
		return AppUser{}, err
	}
	if user.PasswordHash == "" {
		return AppUser{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AppUser{}, ErrInvalidCredentials
	}
	return user, nil
}

// FindByOAuth looks up the account linked to an OAuth identity.
func (s *Service) FindByOAuth(ctx context.Context, provider, providerAccountID string) (AppUser, error) {
	if s == nil || s.Repo == nil {
		return AppUser{}, errors.New("users service not configured")
	}
	return s.Repo.FindByOAuth(ctx, provider, providerAccountID)
}

// FindByPhone looks up an account by phone.
func (s *Service) FindByPhone(ctx context.Context, phone string) (AppUser, error) {
	if s == nil || s.Repo == nil {
		return AppUser{}, errors.New("users service not configured")
	}
	return s.Repo.FindByPhone(ctx, strings.TrimSpace(phone))
}

// LinkOAuth attaches an OAuth identity to an account that has none.
func (s *Service) LinkOAuth(ctx context.Context, userID, provider, providerAccountID string) (AppUser, error) {
	if s == nil || s.Repo == nil {
		return AppUser{}, errors.New("users service not configured")
	}
	return s.Repo.LinkOAuth(ctx, userID, provider, providerAccountID)
}

func (s *Service) GetByID(ctx context.Context, userID string) (AppUser, error) {
	if s == nil || s.Repo == nil {
		return AppUser{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return AppUser{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}
