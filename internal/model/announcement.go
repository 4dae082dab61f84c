package model

import "time"

// Announcement audiences.
const (
	AudienceAll      = "all"
	AudienceParents  = "parents"
	AudienceTeachers = "teachers"
)

// Announcement is a school-wide notice published by an admin.
type Announcement struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SchoolID     uint      `json:"school_id" gorm:"not null;index"`
	AuthorUserID uint      `json:"author_user_id" gorm:"not null"`
	Audience     string    `json:"audience" gorm:"type:varchar(16);not null;default:'all'"`
	Title        string    `json:"title" gorm:"type:varchar(255);not null"`
	Body         string    `json:"body" gorm:"type:text"`
	PublishedAt  time.Time `json:"published_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Author User `json:"-" gorm:"foreignKey:AuthorUserID"`
}

func (Announcement) TableName() string {
	return "announcements"
}
