package model

import "time"

// Class groups students within a school.
type Class struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	SchoolID          uint      `json:"school_id" gorm:"not null;index"`
	Name              string    `json:"name" gorm:"type:varchar(128);not null"`
	Grade             string    `json:"grade" gorm:"type:varchar(32)"`
	HomeroomTeacherID *uint     `json:"homeroom_teacher_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	School          School          `json:"-" gorm:"foreignKey:SchoolID"`
	HomeroomTeacher *TeacherProfile `json:"homeroom_teacher,omitempty" gorm:"foreignKey:HomeroomTeacherID"`
}

func (Class) TableName() string {
	return "classes"
}

// TimetableSlot is one recurring lesson slot in a class timetable.
type TimetableSlot struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	SchoolID         uint      `json:"school_id" gorm:"not null;index"`
	ClassID          uint      `json:"class_id" gorm:"not null;index"`
	TeacherProfileID *uint     `json:"teacher_profile_id,omitempty" gorm:"index"`
	Weekday          int       `json:"weekday" gorm:"not null"` // 0=Sunday .. 6=Saturday
	StartsAt         string    `json:"starts_at" gorm:"type:varchar(5);not null"` // "08:30"
	EndsAt           string    `json:"ends_at" gorm:"type:varchar(5);not null"`
	Subject          string    `json:"subject" gorm:"type:varchar(128);not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Class   Class           `json:"-" gorm:"foreignKey:ClassID"`
	Teacher *TeacherProfile `json:"teacher,omitempty" gorm:"foreignKey:TeacherProfileID"`
}

func (TimetableSlot) TableName() string {
	return "timetable_slots"
}
