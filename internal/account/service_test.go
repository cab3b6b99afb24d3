package account

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedauth "github.com/Wayne-Yuw/toolscout-ai/internal/shared/auth"
	"github.com/Wayne-Yuw/toolscout-ai/internal/users"
)

func TestBindPhoneSameIdentityTwice(t *testing.T) {
	svc := NewService(users.NewService(users.NewMemoryRepo()))
	ctx := context.Background()

	_, err := svc.BindPhone(ctx, githubIdentity, BindInput{Username: "erin", Phone: "13100000000"})
	require.NoError(t, err)

	_, err = svc.BindPhone(ctx, githubIdentity, BindInput{Username: "erin2", Phone: "13100000001"})
	assert.ErrorIs(t, err, ErrIdentityBound)
}

func TestBindPhoneRequiresIdentity(t *testing.T) {
	svc := NewService(users.NewService(users.NewMemoryRepo()))
	_, err := svc.BindPhone(context.Background(), githubIdentity, BindInput{})
	require.Error(t, err)

	_, err = svc.BindPhone(context.Background(), sharedauth.OAuthIdentity{Provider: "github"}, BindInput{Username: "x", Phone: "y"})
	require.Error(t, err)
}
