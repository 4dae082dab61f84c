package model

import "time"

// Attendance statuses.
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

// ValidAttendanceStatus reports whether s is a known attendance status.
func ValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// AttendanceRecord stores one student's attendance for one day. The
// (student_id, date) pair is unique; repeated submissions upsert the row,
// last writer wins.
type AttendanceRecord struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	SchoolID   uint      `json:"school_id" gorm:"not null;index"`
	StudentID  uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_student_date"`
	Date       time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_student_date"`
	Status     string    `json:"status" gorm:"type:varchar(10);not null"`
	MarkedByID uint      `json:"marked_by_id" gorm:"not null"` // teacher profile that recorded it
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Student  Student        `json:"-" gorm:"foreignKey:StudentID"`
	MarkedBy TeacherProfile `json:"-" gorm:"foreignKey:MarkedByID"`
}

func (AttendanceRecord) TableName() string {
	return "attendance_records"
}
