package model

import "time"

// ParentProfile is the global (cross-school) profile of a principal holding
// the parent role. Exactly one per principal, created at signup.
type ParentProfile struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Phone     string    `json:"phone" gorm:"type:varchar(32)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (ParentProfile) TableName() string {
	return "parent_profiles"
}

// ParentStudentLink states. A link grants no visibility until verified;
// a rejected link returns the pair to a linkable state.
const (
	LinkStatusPending  = "pending"
	LinkStatusVerified = "verified"
	LinkStatusRejected = "rejected"
)

// ParentStudentLink associates a parent with a student record. Uniqueness on
// (parent, student) is enforced at the store level so concurrent duplicate
// submissions cannot create two rows.
type ParentStudentLink struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	ParentProfileID uint       `json:"parent_profile_id" gorm:"not null;uniqueIndex:idx_parent_student"`
	StudentID       uint       `json:"student_id" gorm:"not null;uniqueIndex:idx_parent_student"`
	Relationship    string     `json:"relationship" gorm:"type:varchar(32);default:'guardian'"`
	Status          string     `json:"status" gorm:"type:varchar(16);not null;default:'pending'"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	ParentProfile ParentProfile `json:"-" gorm:"foreignKey:ParentProfileID"`
	Student       Student       `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

func (ParentStudentLink) TableName() string {
	return "parent_student_links"
}
