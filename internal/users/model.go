package users

import "time"

// AppUser is a local account. Provider fields are set once an OAuth identity is linked.
type AppUser struct {
	ID                string    `json:"id"`
	Phone             string    `json:"phone"`
	Username          string    `json:"username"`
	PasswordHash      string    `json:"-"`
	Nickname          string    `json:"nickname,omitempty"`
	Email             string    `json:"email,omitempty"`
	AvatarURL         string    `json:"avatar_url,omitempty"`
	IsAdmin           bool      `json:"is_admin"`
	Provider          string    `json:"provider,omitempty"`
	ProviderAccountID string    `json:"provider_account_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// HasProvider reports whether an OAuth identity is already linked.
func (u AppUser) HasProvider() bool {
	return u.Provider != ""
}

// NewUser is the insert payload for Repo.Create.
type NewUser struct {
	Username          string
	Phone             string
	PasswordHash      string
	Nickname          string
	Email             string
	AvatarURL         string
	IsAdmin           bool
	Provider          string
	ProviderAccountID string
}
