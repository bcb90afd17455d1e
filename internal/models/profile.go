package models

import "time"

// Role is the staff role stored on a profile.
type Role string

// Staff roles recognised by the gate workflow. Roles are not hierarchical.
const (
	RoleAdmin    Role = "Admin"
	RoleSecurity Role = "Security"
	RoleTeacher  Role = "Teacher"
)

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// Profile is the application-level record of a staff account. Its ID is the
// identity provider's user id.
type Profile struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	FullName  string    `gorm:"size:255;not null" json:"full_name"`
	Role      Role      `gorm:"size:32;not null;index" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName pins the table name used by the hosted store.
func (Profile) TableName() string {
	return "profiles"
}

// Valid reports whether r is one of the known staff roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSecurity, RoleTeacher:
		return true
	default:
		return false
	}
}
