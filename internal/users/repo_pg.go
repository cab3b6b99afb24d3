package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Wayne-Yuw/toolscout-ai/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, phone, username, password_hash, nickname, email, avatar_url, is_admin, provider, provider_account_id, created_at`

func (r *PGRepo) Create(ctx context.Context, in NewUser) (AppUser, error) {
	const query = `
INSERT INTO app_users (username, phone, password_hash, nickname, email, avatar_url, is_admin, provider, provider_account_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + userColumns
	row := r.DB.QueryRowContext(ctx, query,
		in.Username,
		in.Phone,
		nullableString(in.PasswordHash),
		nullableString(in.Nickname),
		nullableString(in.Email),
		nullableString(in.AvatarURL),
		in.IsAdmin,
		nullableString(in.Provider),
		nullableString(in.ProviderAccountID),
	)
	user, err := scanUser(row)
	if err != nil {
		return AppUser{}, mapWriteError(err)
	}
	return user, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (AppUser, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM app_users WHERE id = $1`, id)
}

func (r *PGRepo) FindByIdentifier(ctx context.Context, identifier string) (AppUser, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM app_users WHERE phone = $1 OR username = $1 LIMIT 1`, identifier)
}

func (r *PGRepo) FindByPhone(ctx context.Context, phone string) (AppUser, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM app_users WHERE phone = $1`, phone)
}

func (r *PGRepo) FindByUsername(ctx context.Context, username string) (AppUser, error) {
	return r.queryOne(ctx, `SELECT `+userColumns+` FROM app_users WHERE username = $1`, username)
}

func (r *PGRepo) FindByOAuth(ctx context.Context, provider, providerAccountID string) (AppUser, error) {
	return r.queryOne(ctx,
		`SELECT `+userColumns+` FROM app_users WHERE provider = $1 AND provider_account_id = $2 LIMIT 1`,
		provider, providerAccountID)
}

// LinkOAuth attaches an identity only while the row has no provider, so two
// concurrent merges cannot both succeed.
func (r *PGRepo) LinkOAuth(ctx context.Context, userID, provider, providerAccountID string) (AppUser, error) {
	const query = `
UPDATE app_users SET provider = $2, provider_account_id = $3
WHERE id = $1 AND provider IS NULL
RETURNING ` + userColumns
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, userID, provider, providerAccountID))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return AppUser{}, mapWriteError(err)
	}
	if _, getErr := r.GetByID(ctx, userID); getErr != nil {
		return AppUser{}, getErr
	}
	return AppUser{}, ErrAlreadyLinked
}

func (r *PGRepo) queryOne(ctx context.Context, query string, args ...any) (AppUser, error) {
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return AppUser{}, ErrNotFound
		}
		return AppUser{}, err
	}
	return user, nil
}

func scanUser(row *sql.Row) (AppUser, error) {
	var user AppUser
	var passwordHash, nickname, email, avatarURL, provider, providerAccountID sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Phone,
		&user.Username,
		&passwordHash,
		&nickname,
		&email,
		&avatarURL,
		&user.IsAdmin,
		&provider,
		&providerAccountID,
		&user.CreatedAt,
	)
	if err != nil {
		return AppUser{}, err
	}
	user.PasswordHash = passwordHash.String
	user.Nickname = nickname.String
	user.Email = email.String
	user.AvatarURL = avatarURL.String
	user.Provider = provider.String
	user.ProviderAccountID = providerAccountID.String
	return user, nil
}

func mapWriteError(err error) error {
	constraint, ok := db.UniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case "app_users_phone_key":
		return conflict(FieldPhone)
	case "app_users_username_key":
		return conflict(FieldUsername)
	case "app_users_provider_account_key":
		return conflict(FieldOAuth)
	default:
		return fmt.Errorf("%w: %s", ErrConflict, constraint)
	}
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
