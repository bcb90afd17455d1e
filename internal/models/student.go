package models

// Student is a pupil that may be authorised to leave early. Students are
// maintained outside this service.
type Student struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"size:128;not null" json:"first_name"`
	LastName  string `gorm:"size:128;not null" json:"last_name"`
	Grade     string `gorm:"size:32" json:"grade"`
}

// TableName pins the table name used by the hosted store.
func (Student) TableName() string {
	return "students"
}
