package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gate-api/internal/dto"
	"github.com/noah-isme/gate-api/internal/identity"
)

const messageInvalidCredentials = "Invalid login credentials"

// PasswordSigner exchanges account credentials for an access token.
type PasswordSigner interface {
	SignIn(ctx context.Context, email, password string) (string, error)
}

// SessionService issues access tokens for the in-process identity driver.
type SessionService interface {
	SignIn(ctx context.Context, payload dto.SignInRequest) (dto.SessionResponse, error)
}

type sessionService struct {
	signer    PasswordSigner
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSessionService constructs the session service.
func NewSessionService(signer PasswordSigner, validate *validator.Validate, logger zerolog.Logger) SessionService {
	return &sessionService{
		signer:    signer,
		validator: validate,
		logger:    logger.With().Str("component", "session_service").Logger(),
	}
}

func (s *sessionService) SignIn(ctx context.Context, payload dto.SignInRequest) (dto.SessionResponse, error) {
	payload.Email = strings.TrimSpace(payload.Email)

	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, validationFailure(err)
	}

	token, err := s.signer.SignIn(ctx, payload.Email, payload.Password)
	if err != nil {
		var apiErr *identity.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			s.logger.Debug().Str("email", payload.Email).Msg("sign-in rejected")
			return dto.SessionResponse{}, UnauthenticatedError(messageInvalidCredentials, ErrInvalidCredentials)
		}
		return dto.SessionResponse{}, UpstreamError("Failed to sign in", err)
	}

	return dto.SessionResponse{AccessToken: token, TokenType: "bearer"}, nil
}
