package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-api/internal/dto"
	"github.com/noah-isme/gate-api/internal/identity"
)

type passwordSignerStub struct {
	token string
	err   error
	calls int
}

func (p *passwordSignerStub) SignIn(context.Context, string, string) (string, error) {
	p.calls++
	return p.token, p.err
}

func TestSessionServiceSignIn(t *testing.T) {
	provider, err := identity.NewMemoryProvider("session-secret")
	require.NoError(t, err)
	account, err := provider.CreateUser(context.Background(), identity.CreateUserParams{Email: "gate@example.com", Password: "secret123"})
	require.NoError(t, err)

	svc := NewSessionService(provider, NewValidator(), testLogger())

	session, err := svc.SignIn(context.Background(), dto.SignInRequest{Email: " Gate@example.com ", Password: "secret123"})
	require.NoError(t, err)
	require.Equal(t, "bearer", session.TokenType)

	user, err := provider.VerifyToken(context.Background(), session.AccessToken)
	require.NoError(t, err)
	require.Equal(t, account.ID, user.ID)
}

func TestSessionServiceRejectsBadCredentials(t *testing.T) {
	signer := &passwordSignerStub{err: &identity.APIError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials"}}
	svc := NewSessionService(signer, NewValidator(), testLogger())

	_, err := svc.SignIn(context.Background(), dto.SignInRequest{Email: "gate@example.com", Password: "wrong"})
	require.Error(t, err)
	require.Equal(t, KindUnauthenticated, KindOf(err))
	require.True(t, errors.Is(err, ErrInvalidCredentials))
	require.Equal(t, "Invalid login credentials", err.Error())
}

func TestSessionServiceValidatesBeforeSigning(t *testing.T) {
	signer := &passwordSignerStub{token: "unused"}
	svc := NewSessionService(signer, NewValidator(), testLogger())

	_, err := svc.SignIn(context.Background(), dto.SignInRequest{Email: "gate@example.com"})
	require.Error(t, err)
	require.Equal(t, KindValidation, KindOf(err))
	require.Equal(t, "Missing required fields: password.", err.Error())
	require.Zero(t, signer.calls)
}

func TestSessionServiceProviderFailure(t *testing.T) {
	signer := &passwordSignerStub{err: errors.New("connection refused")}
	svc := NewSessionService(signer, NewValidator(), testLogger())

	_, err := svc.SignIn(context.Background(), dto.SignInRequest{Email: "gate@example.com", Password: "secret123"})
	require.Error(t, err)
	require.Equal(t, KindUpstream, KindOf(err))
}
