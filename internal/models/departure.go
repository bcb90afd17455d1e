package models

import "time"

// DepartureStatus is the lifecycle state of an early departure.
type DepartureStatus string

// A departure is created Approved and moves to CheckedOut exactly once.
const (
	DepartureStatusApproved   DepartureStatus = "Approved"
	DepartureStatusCheckedOut DepartureStatus = "Checked-Out"
)

// EarlyDeparture authorises a student to leave before the end of the day and
// records when and by whom the student was checked out at the gate.
type EarlyDeparture struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	StudentID             uint            `gorm:"not null;index" json:"student_id"`
	Reason                string          `gorm:"type:text;not null" json:"reason"`
	Status                DepartureStatus `gorm:"size:32;not null;index" json:"status"`
	CreatedAt             time.Time       `gorm:"index" json:"created_at"`
	ApprovedByProfileID   string          `gorm:"type:uuid;not null" json:"approved_by_profile_id"`
	CheckedOutAt          *time.Time      `json:"checked_out_at"`
	CheckedOutByProfileID *string         `gorm:"type:uuid" json:"checked_out_by_profile_id"`

	Student      *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	ApprovedBy   *Profile `gorm:"foreignKey:ApprovedByProfileID" json:"approved_by,omitempty"`
	CheckedOutBy *Profile `gorm:"foreignKey:CheckedOutByProfileID" json:"checked_out_by,omitempty"`
}

// TableName pins the table name used by the hosted store.
func (EarlyDeparture) TableName() string {
	return "early_departures"
}
