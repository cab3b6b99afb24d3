package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignVerifyLinked(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Linked("user-1", true))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.AppUserID != "user-1" || !claims.IsAdmin || claims.NeedsBinding {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.RegisteredClaims.Subject != "user-1" {
		t.Fatalf("unexpected sub: %q", claims.RegisteredClaims.Subject)
	}
}

func TestSignVerifyPendingBinding(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(PendingBinding(OAuthIdentity{Provider: "github", ProviderAccountID: "42", Email: "a@b.c"}))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !claims.NeedsBinding || claims.OAuth == nil || claims.OAuth.ProviderAccountID != "42" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Owner() != "oauth:github:42" {
		t.Fatalf("unexpected owner: %q", claims.Owner())
	}
}

func TestVerifyRejectsTamperedAndExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Linked("user-1", false))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyJWT(token + "x"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}

	expired := Linked("user-1", false)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	token, err = SignJWT(expired)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestSignRequiresSecretInProduction(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := SignJWT(Linked("user-1", false)); !errors.Is(err, errMissingSecret) {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}

func TestSignRequiresSubject(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := SignJWT(Claims{}); err == nil {
		t.Fatalf("expected error for empty claims")
	}
}

func TestSignRequiresSecretOutsideDev(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	for _, env := range []string{"staging", "production"} {
		t.Setenv("ENV", env)
		if _, err := SignJWT(Linked("user-1", false)); !errors.Is(err, errMissingSecret) {
			t.Fatalf("%s: expected missing secret error, got %v", env, err)
		}
	}
	for _, env := range []string{"dev", "local", ""} {
		t.Setenv("ENV", env)
		if _, err := SignJWT(Linked("user-1", false)); err != nil {
			t.Fatalf("%s: expected dev secret, got %v", env, err)
		}
	}
}

func TestConfigureOverridesEnvironment(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("JWT_SECRET", "")
	restore := Configure(Settings{Secret: "configured", TTL: time.Hour, Env: "staging"})
	defer restore()

	token, err := SignJWT(Linked("user-1", false))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Fatalf("expected 1h lifetime, got %s", got)
	}

	restore()
	if _, err := VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token signed with configured secret to fail under dev secret, got %v", err)
	}
}
