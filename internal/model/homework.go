package model

import "time"

// HomeworkAssignment is a homework item published by a teacher for a class.
type HomeworkAssignment struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	SchoolID         uint      `json:"school_id" gorm:"not null;index"`
	ClassID          uint      `json:"class_id" gorm:"not null;index"`
	TeacherProfileID uint      `json:"teacher_profile_id" gorm:"not null;index"`
	Title            string    `json:"title" gorm:"type:varchar(255);not null"`
	Description      string    `json:"description" gorm:"type:text"`
	DueDate          time.Time `json:"due_date" gorm:"type:date;not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Class   Class          `json:"-" gorm:"foreignKey:ClassID"`
	Teacher TeacherProfile `json:"-" gorm:"foreignKey:TeacherProfileID"`
}

func (HomeworkAssignment) TableName() string {
	return "homework_assignments"
}
