package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

var pgColumns = []string{"id", "phone", "username", "password_hash", "nickname", "email", "avatar_url", "is_admin", "provider", "provider_account_id", "created_at"}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateReturnsRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO app_users").
		WithArgs("alice", "13812345678", "hash", "nick", nil, "https://a/b.png", false, nil, nil).
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow("u-1", "13812345678", "alice", "hash", "nick", nil, "https://a/b.png", false, nil, nil, now))

	user, err := repo.Create(context.Background(), NewUser{
		Username:     "alice",
		Phone:        "13812345678",
		PasswordHash: "hash",
		Nickname:     "nick",
		AvatarURL:    "https://a/b.png",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID != "u-1" || user.Email != "" || user.HasProvider() {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	cases := []struct {
		constraint string
		field      string
	}{
		{"app_users_phone_key", FieldPhone},
		{"app_users_username_key", FieldUsername},
		{"app_users_provider_account_key", FieldOAuth},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery("INSERT INTO app_users").
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tc.constraint})

			_, err := repo.Create(context.Background(), NewUser{Username: "alice", Phone: "13812345678"})
			if !errors.Is(err, ErrConflict) {
				t.Fatalf("expected ErrConflict, got %v", err)
			}
			if got := ConflictField(err); got != tc.field {
				t.Fatalf("expected field %s, got %s", tc.field, got)
			}
		})
	}
}

func TestPGRepoFindByOAuthNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("FROM app_users WHERE provider = \\$1 AND provider_account_id = \\$2").
		WithArgs("github", "42").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByOAuth(context.Background(), "github", "42")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoLinkOAuthAlreadyLinked(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("UPDATE app_users SET provider").
		WithArgs("u-1", "github", "42").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM app_users WHERE id = \\$1").
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow("u-1", "13812345678", "alice", nil, nil, nil, nil, false, "google", "g-1", now))

	_, err := repo.LinkOAuth(context.Background(), "u-1", "github", "42")
	if !errors.Is(err, ErrAlreadyLinked) {
		t.Fatalf("expected ErrAlreadyLinked, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoLinkOAuthSucceeds(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("UPDATE app_users SET provider").
		WithArgs("u-1", "github", "42").
		WillReturnRows(sqlmock.NewRows(pgColumns).
			AddRow("u-1", "13812345678", "alice", nil, nil, nil, nil, false, "github", "42", now))

	user, err := repo.LinkOAuth(context.Background(), "u-1", "github", "42")
	if err != nil {
		t.Fatalf("LinkOAuth: %v", err)
	}
	if user.Provider != "github" || user.ProviderAccountID != "42" {
		t.Fatalf("unexpected user: %+v", user)
	}
}
