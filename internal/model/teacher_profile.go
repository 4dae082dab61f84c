package model

import "time"

// TeacherProfile is the per-school profile of a principal holding the teacher
// or admin role there. Provisioned by the school admin; a role assignment
// without a matching profile is a recoverable "not provisioned" state.
type TeacherProfile struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_teacher_user_school"`
	SchoolID  uint      `json:"school_id" gorm:"not null;uniqueIndex:idx_teacher_user_school"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Subject   string    `json:"subject" gorm:"type:varchar(128)"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User   User   `json:"-" gorm:"foreignKey:UserID"`
	School School `json:"-" gorm:"foreignKey:SchoolID"`
}

func (TeacherProfile) TableName() string {
	return "teacher_profiles"
}
