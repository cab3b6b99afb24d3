package users

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestServiceCreateOAuthBoundHasNoPassword(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	user, err := svc.Create(context.Background(), CreateInput{
		Username:          "bob",
		Phone:             "13900001111",
		Provider:          "github",
		ProviderAccountID: "42",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.PasswordHash != "" || user.Provider != "github" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if _, err := svc.Authenticate(context.Background(), "bob", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for passwordless account, got %v", err)
	}
}

func TestServiceConcurrentCreateOnlyOneWins(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), CreateInput{Username: "carol", Phone: "13700000000", Password: "secret1"})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if successes != 1 {
		t.Fatalf("expected exactly one success, got %d", successes)
	}
}

func TestMemoryRepoLinkOAuth(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	user, err := repo.Create(ctx, NewUser{Username: "dave", Phone: "13600000000"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	linked, err := repo.LinkOAuth(ctx, user.ID, "google", "g-1")
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if linked.ID != user.ID || linked.Provider != "google" {
		t.Fatalf("unexpected linked user: %+v", linked)
	}
	if _, err := repo.LinkOAuth(ctx, user.ID, "github", "42"); !errors.Is(err, ErrAlreadyLinked) {
		t.Fatalf("expected ErrAlreadyLinked, got %v", err)
	}
	found, err := repo.FindByOAuth(ctx, "google", "g-1")
	if err != nil || found.ID != user.ID {
		t.Fatalf("expected lookup by oauth, got %+v %v", found, err)
	}
	if _, err := repo.LinkOAuth(ctx, "missing", "github", "42"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
