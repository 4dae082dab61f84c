package model

import "time"

// Notification is a per-user inbox entry (link approved, fee due, etc).
type Notification struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"not null;index"`
	SchoolID  *uint      `json:"school_id,omitempty" gorm:"index"`
	Kind      string     `json:"kind" gorm:"type:varchar(64);not null"`
	Message   string     `json:"message" gorm:"type:text"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (Notification) TableName() string {
	return "notifications"
}
