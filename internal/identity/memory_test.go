package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryProviderLifecycle(t *testing.T) {
	provider, err := NewMemoryProvider("test-secret")
	require.NoError(t, err)
	ctx := context.Background()

	user, err := provider.CreateUser(ctx, CreateUserParams{Email: "Admin@School.test", Password: "secret1", EmailConfirm: true})
	require.NoError(t, err)
	require.Equal(t, "admin@school.test", user.Email)
	require.NotNil(t, user.EmailConfirmedAt)

	token, err := provider.SignIn(ctx, "admin@school.test", "secret1")
	require.NoError(t, err)

	resolved, err := provider.VerifyToken(ctx, token)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)

	_, err = provider.SignIn(ctx, "admin@school.test", "wrong")
	require.Error(t, err)

	require.NoError(t, provider.DeleteUser(ctx, user.ID))
	require.ErrorIs(t, provider.DeleteUser(ctx, user.ID), ErrUserNotFound)

	_, err = provider.VerifyToken(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMemoryProviderRejectsDuplicateEmail(t *testing.T) {
	provider, err := NewMemoryProvider("test-secret")
	require.NoError(t, err)

	_, err = provider.CreateUser(context.Background(), CreateUserParams{Email: "a@school.test", Password: "secret1"})
	require.NoError(t, err)

	_, err = provider.CreateUser(context.Background(), CreateUserParams{Email: "A@school.test", Password: "secret1"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "email_exists", apiErr.Code)
}

func TestMemoryProviderRejectsExpiredAndForeignTokens(t *testing.T) {
	now := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	provider, err := NewMemoryProvider("test-secret", WithTokenTTL(time.Minute), WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	user, err := provider.CreateUser(context.Background(), CreateUserParams{Email: "g@school.test", Password: "secret1"})
	require.NoError(t, err)

	token, err := provider.IssueToken(user.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = provider.VerifyToken(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)

	other, err := NewMemoryProvider("other-secret")
	require.NoError(t, err)
	foreign, err := other.IssueToken(user.ID)
	require.NoError(t, err)
	_, err = provider.VerifyToken(context.Background(), foreign)
	require.ErrorIs(t, err, ErrInvalidToken)
}
