// Package identity talks to the identity provider that owns staff accounts
// and issues bearer tokens.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidToken is returned when a bearer token cannot be resolved to a user.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUserNotFound is returned when the targeted account does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// User is an identity provider account.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// CreateUserParams describes an account to create.
type CreateUserParams struct {
	Email        string
	Password     string
	EmailConfirm bool
}

// Provider is the subset of identity provider operations used by the API.
type Provider interface {
	VerifyToken(ctx context.Context, token string) (User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	DeleteUser(ctx context.Context, id string) error
}

// APIError is a non-success response returned by the identity provider.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (status %d, %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}
