package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]AppUser
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]AppUser)}
}

func (r *MemoryRepo) Create(ctx context.Context, in NewUser) (AppUser, error) {
	if err := ctx.Err(); err != nil {
		return AppUser{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		switch {
		case u.Phone == in.Phone:
			return AppUser{}, conflict(FieldPhone)
		case u.Username == in.Username:
			return AppUser{}, conflict(FieldUsername)
		case in.Provider != "" && u.Provider == in.Provider && u.ProviderAccountID == in.ProviderAccountID:
			return AppUser{}, conflict(FieldOAuth)
		}
	}
	user := AppUser{
		ID:                uuid.NewString(),
		Phone:             in.Phone,
		Username:          in.Username,
		PasswordHash:      in.PasswordHash,
		Nickname:          in.Nickname,
		Email:             in.Email,
		AvatarURL:         in.AvatarURL,
		IsAdmin:           in.IsAdmin,
		Provider:          in.Provider,
		ProviderAccountID: in.ProviderAccountID,
		CreatedAt:         time.Now().UTC(),
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (AppUser, error) {
	return r.find(ctx, func(u AppUser) bool { return u.ID == id })
}

func (r *MemoryRepo) FindByIdentifier(ctx context.Context, identifier string) (AppUser, error) {
	return r.find(ctx, func(u AppUser) bool { return u.Phone == identifier || u.Username == identifier })
}

func (r *MemoryRepo) FindByPhone(ctx context.Context, phone string) (AppUser, error) {
	return r.find(ctx, func(u AppUser) bool { return u.Phone == phone })
}

func (r *MemoryRepo) FindByUsername(ctx context.Context, username string) (AppUser, error) {
	return r.find(ctx, func(u AppUser) bool { return u.Username == username })
}

func (r *MemoryRepo) FindByOAuth(ctx context.Context, provider, providerAccountID string) (AppUser, error) {
	return r.find(ctx, func(u AppUser) bool {
		return u.Provider == provider && u.ProviderAccountID == providerAccountID
	})
}

func (r *MemoryRepo) LinkOAuth(ctx context.Context, userID, provider, providerAccountID string) (AppUser, error) {
	if err := ctx.Err(); err != nil {
		return AppUser{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return AppUser{}, ErrNotFound
	}
	if user.HasProvider() {
		return AppUser{}, ErrAlreadyLinked
	}
	for _, u := range r.users {
		if u.Provider == provider && u.ProviderAccountID == providerAccountID {
			return AppUser{}, conflict(FieldOAuth)
		}
	}
	user.Provider = provider
	user.ProviderAccountID = providerAccountID
	r.users[userID] = user
	return user, nil
}

func (r *MemoryRepo) find(ctx context.Context, match func(AppUser) bool) (AppUser, error) {
	if err := ctx.Err(); err != nil {
		return AppUser{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			return u, nil
		}
	}
	return AppUser{}, ErrNotFound
}
