package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestGoTrue(t *testing.T, handler http.HandlerFunc) *GoTrueClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewGoTrueClient(GoTrueConfig{
		BaseURL:        server.URL,
		ServiceRoleKey: "service-key",
		AnonKey:        "anon-key",
	}, server.Client(), zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestGoTrueVerifyToken(t *testing.T) {
	client := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/user", r.URL.Path)
		require.Equal(t, "anon-key", r.Header.Get("apikey"))
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"error_code":"bad_jwt","msg":"invalid JWT"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"7b6f4c0e-1f0a-4c55-a0a6-5c1d3f7f4a11","email":"guard@school.test"}`))
	})

	user, err := client.VerifyToken(context.Background(), "good-token")
	require.NoError(t, err)
	require.Equal(t, "7b6f4c0e-1f0a-4c55-a0a6-5c1d3f7f4a11", user.ID)
	require.Equal(t, "guard@school.test", user.Email)

	_, err = client.VerifyToken(context.Background(), "bad-token")
	require.ErrorIs(t, err, ErrInvalidToken)
	require.ErrorContains(t, err, "invalid JWT")
}

func TestGoTrueCreateUserSendsConfirmedAccount(t *testing.T) {
	client := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/v1/admin/users", r.URL.Path)
		require.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		require.Equal(t, "service-key", r.Header.Get("apikey"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "new@school.test", body["email"])
		require.Equal(t, true, body["email_confirm"])

		_, _ = w.Write([]byte(`{"id":"0d1b7cf2-5a55-4bb4-9df4-6d6b6f8f1d10","email":"new@school.test"}`))
	})

	user, err := client.CreateUser(context.Background(), CreateUserParams{Email: "new@school.test", Password: "secret1", EmailConfirm: true})
	require.NoError(t, err)
	require.Equal(t, "0d1b7cf2-5a55-4bb4-9df4-6d6b6f8f1d10", user.ID)
}

func TestGoTrueCreateUserSurfacesAPIError(t *testing.T) {
	client := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":422,"error_code":"email_exists","msg":"A user with this email address has already been registered"}`))
	})

	_, err := client.CreateUser(context.Background(), CreateUserParams{Email: "dup@school.test", Password: "secret1"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	require.Equal(t, "email_exists", apiErr.Code)
}

func TestGoTrueDeleteUser(t *testing.T) {
	client := newTestGoTrue(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		switch r.URL.Path {
		case "/auth/v1/admin/users/known":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":404,"error_code":"user_not_found","msg":"User not found"}`))
		}
	})

	require.NoError(t, client.DeleteUser(context.Background(), "known"))
	require.ErrorIs(t, client.DeleteUser(context.Background(), "missing"), ErrUserNotFound)
}

func TestNewGoTrueClientRequiresServiceKey(t *testing.T) {
	_, err := NewGoTrueClient(GoTrueConfig{BaseURL: "https://example.supabase.co"}, nil, zerolog.Nop())
	require.Error(t, err)
}
