package handler_test

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gate-api/internal/dto"
	"github.com/noah-isme/gate-api/internal/handler"
	"github.com/noah-isme/gate-api/internal/service"
)

type mockSessionService struct {
	payload dto.SignInRequest
	err     error
}

func (m *mockSessionService) SignIn(_ context.Context, payload dto.SignInRequest) (dto.SessionResponse, error) {
	m.payload = payload
	if m.err != nil {
		return dto.SessionResponse{}, m.err
	}
	return dto.SessionResponse{AccessToken: "token-123", TokenType: "bearer"}, nil
}

func newSessionApp(svc service.SessionService) *fiber.App {
	app := fiber.New()
	handler.NewSessionHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/auth"))
	return app
}

func TestSessionHandlerLogin(t *testing.T) {
	svc := &mockSessionService{}
	app := newSessionApp(svc)

	resp, payload := doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{"email": "gate@example.com", "password": "secret123"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "token-123", payload["access_token"])
	require.Equal(t, "gate@example.com", svc.payload.Email)
}

func TestSessionHandlerRejectedCredentials(t *testing.T) {
	svc := &mockSessionService{err: service.UnauthenticatedError("Invalid login credentials", service.ErrInvalidCredentials)}
	app := newSessionApp(svc)

	resp, payload := doJSON(t, app, http.MethodPost, "/api/auth/login", map[string]string{"email": "gate@example.com", "password": "nope"})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "Invalid login credentials", payload["error"])
}
