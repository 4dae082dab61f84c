package model

import "time"

// School is the tenant: the isolation boundary for all operational data.
// Schools are created by the platform super-admin and are deactivated
// rather than deleted.
type School struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Code      string    `json:"code" gorm:"type:varchar(32);uniqueIndex;not null"` // human-entered, used by parents to link students
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Active    bool      `json:"active" gorm:"default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
