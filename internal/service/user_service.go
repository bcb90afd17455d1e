package service

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gate-api/internal/dto"
	"github.com/noah-isme/gate-api/internal/identity"
	"github.com/noah-isme/gate-api/internal/models"
	"github.com/noah-isme/gate-api/internal/observability"
	"github.com/noah-isme/gate-api/internal/repository"
)

// UserService manages staff accounts across the identity provider and the
// profiles table.
type UserService interface {
	Create(ctx context.Context, payload dto.CreateUserRequest, actor Actor) (dto.CreateUserResponse, error)
	List(ctx context.Context) ([]dto.ProfileResponse, error)
	Update(ctx context.Context, id string, payload dto.UpdateUserRequest, actor Actor) (dto.ProfileResponse, error)
	Delete(ctx context.Context, id string, actor Actor) error
}

type userService struct {
	identity  identity.Provider
	profiles  repository.ProfileRepository
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	activity  ActivityRecorder
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewUserService constructs the staff account service.
func NewUserService(provider identity.Provider, profiles repository.ProfileRepository, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) UserService {
	return &userService{
		identity:  provider,
		profiles:  profiles,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		activity:  activity,
		tracer:    otel.Tracer("github.com/noah-isme/gate-api/internal/service/user"),
		logger:    logger.With().Str("component", "user_service").Logger(),
	}
}

// Create provisions the identity account and then its profile. The two
// systems share no transaction: when the profile insert fails the account is
// deleted again before the profile error is returned.
func (s *userService) Create(ctx context.Context, payload dto.CreateUserRequest, actor Actor) (dto.CreateUserResponse, error) {
	payload.Email = strings.TrimSpace(payload.Email)
	payload.FullName = s.cleanText(payload.FullName)
	payload.Role = strings.TrimSpace(payload.Role)

	if err := s.validator.Struct(payload); err != nil {
		return dto.CreateUserResponse{}, validationFailure(err)
	}

	spanCtx, span := s.tracer.Start(ctx, "users.create", trace.WithAttributes(
		attribute.String("user.role", payload.Role),
	))
	defer span.End()

	account, err := s.identity.CreateUser(spanCtx, identity.CreateUserParams{
		Email:        payload.Email,
		Password:     payload.Password,
		EmailConfirm: true,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "identity account creation failed")
		return dto.CreateUserResponse{}, UpstreamError("Failed to create user: Auth Error", err)
	}

	profile := models.Profile{
		ID:       account.ID,
		FullName: payload.FullName,
		Role:     models.Role(payload.Role),
	}
	if err := s.profiles.Create(spanCtx, &profile); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile insert failed")
		s.rollbackAccount(spanCtx, account.ID)
		return dto.CreateUserResponse{}, UpstreamError("Failed to create user: Profile Error", err)
	}

	record(spanCtx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "user.created",
		EntityType: "profile",
		EntityID:   profile.ID,
		Metadata: map[string]interface{}{
			"role":  profile.Role.String(),
			"email": account.Email,
		},
	})

	return dto.CreateUserResponse{
		Message: "User created successfully",
		Account: account,
		Profile: dto.NewProfileResponse(profile),
	}, nil
}

func (s *userService) rollbackAccount(ctx context.Context, accountID string) {
	// The request context may already be cancelled; the cleanup still has to run.
	cleanupCtx := context.WithoutCancel(ctx)
	if err := s.identity.DeleteUser(cleanupCtx, accountID); err != nil && !errors.Is(err, identity.ErrUserNotFound) {
		observability.ProfileRollbacks().WithLabelValues("failed").Inc()
		s.logger.Error().Err(err).Str("user_id", accountID).Msg("failed to roll back identity account after profile error")
		return
	}
	observability.ProfileRollbacks().WithLabelValues("ok").Inc()
	s.logger.Warn().Str("user_id", accountID).Msg("identity account rolled back after profile error")
}

func (s *userService) List(ctx context.Context) ([]dto.ProfileResponse, error) {
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, UpstreamError("Failed to retrieve users", err)
	}
	return dto.NewProfileResponseSlice(profiles), nil
}

func (s *userService) Update(ctx context.Context, id string, payload dto.UpdateUserRequest, actor Actor) (dto.ProfileResponse, error) {
	updates := make(map[string]interface{}, 2)
	changedFields := make([]string, 0, 2)

	if payload.FullName != nil {
		if name := s.cleanText(*payload.FullName); name != "" {
			updates["full_name"] = name
			changedFields = append(changedFields, "full_name")
		}
	}
	if payload.Role != nil {
		if role := models.Role(strings.TrimSpace(*payload.Role)); role != "" {
			if !role.Valid() {
				return dto.ProfileResponse{}, ValidationError("Invalid role. Allowed roles: Admin, Security, Teacher.", nil)
			}
			updates["role"] = role
			changedFields = append(changedFields, "role")
		}
	}

	if len(updates) == 0 {
		return dto.ProfileResponse{}, ValidationError("No fields to update. Provide full_name or role.", ErrNothingToUpdate)
	}

	profile, err := s.profiles.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProfileResponse{}, NotFoundError("User not found", ErrProfileNotFound)
		}
		return dto.ProfileResponse{}, UpstreamError("Failed to update user", err)
	}

	record(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "user.updated",
		EntityType: "profile",
		EntityID:   id,
		Metadata:   map[string]interface{}{"fields": changedFields},
	})

	return dto.NewProfileResponse(profile), nil
}

// Delete removes the identity account. An account that is already gone counts
// as deleted; the profile row is removed by the store's cascade.
func (s *userService) Delete(ctx context.Context, id string, actor Actor) error {
	if err := s.identity.DeleteUser(ctx, id); err != nil {
		if !errors.Is(err, identity.ErrUserNotFound) {
			return UpstreamError("Failed to delete user", err)
		}
		s.logger.Debug().Str("user_id", id).Msg("identity account already absent")
	}

	record(ctx, s.activity, ActivityEntry{
		Actor:      actor,
		Action:     "user.deleted",
		EntityType: "profile",
		EntityID:   id,
	})

	return nil
}

func (s *userService) cleanText(value string) string {
	return sanitizeText(s.sanitizer, value)
}

// sanitizeText strips markup and returns plain text; entities produced by the
// policy are decoded so names such as O'Brien survive unchanged.
func sanitizeText(policy *bluemonday.Policy, value string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(strings.TrimSpace(value))))
}
