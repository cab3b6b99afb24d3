package users

import "context"

// Repo persists app users. Create and LinkOAuth enforce uniqueness themselves
// and report violations as *ConflictError.
type Repo interface {
	Create(ctx context.Context, user NewUser) (AppUser, error)
	GetByID(ctx context.Context, id string) (AppUser, error)
	FindByIdentifier(ctx context.Context, identifier string) (AppUser, error)
	FindByPhone(ctx context.Context, phone string) (AppUser, error)
	FindByUsername(ctx context.Context, username string) (AppUser, error)
	FindByOAuth(ctx context.Context, provider, providerAccountID string) (AppUser, error)
	LinkOAuth(ctx context.Context, userID, provider, providerAccountID string) (AppUser, error)
}
