package model

import "time"

// Student is a school-scoped student record. Students have no dedicated
// login credential; a signed-in principal is matched to a record by email.
type Student struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	SchoolID    uint      `json:"school_id" gorm:"not null;uniqueIndex:idx_school_admission"`
	AdmissionNo string    `json:"admission_no" gorm:"type:varchar(32);not null;uniqueIndex:idx_school_admission"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Email       string    `json:"email" gorm:"type:varchar(255);index"`
	ClassID     *uint     `json:"class_id,omitempty" gorm:"index"`
	Active      bool      `json:"active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	School School `json:"-" gorm:"foreignKey:SchoolID"`
	Class  *Class `json:"class,omitempty" gorm:"foreignKey:ClassID"`
}

func (Student) TableName() string {
	return "students"
}
