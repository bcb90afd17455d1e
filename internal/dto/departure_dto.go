package dto

import (
	"time"

	"github.com/noah-isme/gate-api/internal/models"
)

// CreateDepartureRequest is the payload an administrator submits to authorise
// an early departure. The approver is always the caller.
type CreateDepartureRequest struct {
	StudentID uint   `json:"student_id" validate:"required,gt=0"`
	Reason    string `json:"reason" validate:"required,max=2000"`
}

// StudentSummary is the student embedded in departure responses.
type StudentSummary struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Grade     string `json:"grade"`
}

// StaffSummary is a profile embedded in departure responses.
type StaffSummary struct {
	ID       string      `json:"id"`
	FullName string      `json:"full_name"`
	Role     models.Role `json:"role"`
}

// DepartureResponse serializes an early departure record.
type DepartureResponse struct {
	ID                    uint                   `json:"id"`
	StudentID             uint                   `json:"student_id"`
	Reason                string                 `json:"reason"`
	Status                models.DepartureStatus `json:"status"`
	CreatedAt             time.Time              `json:"created_at"`
	ApprovedByProfileID   string                 `json:"approved_by_profile_id"`
	CheckedOutAt          *time.Time             `json:"checked_out_at"`
	CheckedOutByProfileID *string                `json:"checked_out_by_profile_id"`
	Student               *StudentSummary        `json:"student,omitempty"`
	ApprovedBy            *StaffSummary          `json:"approved_by,omitempty"`
	CheckedOutBy          *StaffSummary          `json:"checked_out_by,omitempty"`
}

// NewDepartureResponse converts a departure model, with any loaded
// associations, into its DTO.
func NewDepartureResponse(departure models.EarlyDeparture) DepartureResponse {
	response := DepartureResponse{
		ID:                    departure.ID,
		StudentID:             departure.StudentID,
		Reason:                departure.Reason,
		Status:                departure.Status,
		CreatedAt:             departure.CreatedAt,
		ApprovedByProfileID:   departure.ApprovedByProfileID,
		CheckedOutAt:          departure.CheckedOutAt,
		CheckedOutByProfileID: departure.CheckedOutByProfileID,
	}

	if departure.Student != nil {
		response.Student = &StudentSummary{
			ID:        departure.Student.ID,
			FirstName: departure.Student.FirstName,
			LastName:  departure.Student.LastName,
			Grade:     departure.Student.Grade,
		}
	}
	response.ApprovedBy = newStaffSummary(departure.ApprovedBy)
	response.CheckedOutBy = newStaffSummary(departure.CheckedOutBy)

	return response
}

// NewDepartureResponseSlice converts departure models into DTOs.
func NewDepartureResponseSlice(departures []models.EarlyDeparture) []DepartureResponse {
	responses := make([]DepartureResponse, 0, len(departures))
	for _, departure := range departures {
		responses = append(responses, NewDepartureResponse(departure))
	}
	return responses
}

func newStaffSummary(profile *models.Profile) *StaffSummary {
	if profile == nil {
		return nil
	}
	return &StaffSummary{ID: profile.ID, FullName: profile.FullName, Role: profile.Role}
}
