package dto

import (
	"time"

	"github.com/noah-isme/gate-api/internal/identity"
	"github.com/noah-isme/gate-api/internal/models"
)

// CreateUserRequest is the payload for creating a staff account.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"full_name" validate:"required,max=255"`
	Role     string `json:"role" validate:"required,oneof=Admin Security Teacher"`
}

// UpdateUserRequest carries the profile fields to change. Absent or empty
// fields are left untouched.
type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Role     *string `json:"role"`
}

// ProfileResponse serializes a staff profile.
type ProfileResponse struct {
	ID        string      `json:"id"`
	FullName  string      `json:"full_name"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// CreateUserResponse is returned after an account and its profile are created.
type CreateUserResponse struct {
	Message string          `json:"message"`
	Account identity.User   `json:"account"`
	Profile ProfileResponse `json:"profile"`
}

// NewProfileResponse converts a profile model into its DTO.
func NewProfileResponse(profile models.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        profile.ID,
		FullName:  profile.FullName,
		Role:      profile.Role,
		CreatedAt: profile.CreatedAt,
	}
}

// NewProfileResponseSlice converts profile models into DTOs.
func NewProfileResponseSlice(profiles []models.Profile) []ProfileResponse {
	responses := make([]ProfileResponse, 0, len(profiles))
	for _, profile := range profiles {
		responses = append(responses, NewProfileResponse(profile))
	}
	return responses
}
