package model

import "time"

// Fee record statuses.
const (
	FeeUnpaid = "unpaid"
	FeePaid   = "paid"
	FeeWaived = "waived"
)

// FeeRecord is an invoice issued to a student by the school admin.
type FeeRecord struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	SchoolID    uint       `json:"school_id" gorm:"not null;index"`
	StudentID   uint       `json:"student_id" gorm:"not null;index"`
	Title       string     `json:"title" gorm:"type:varchar(255);not null"`
	AmountCents int64      `json:"amount_cents" gorm:"not null"`
	DueDate     time.Time  `json:"due_date" gorm:"type:date;not null"`
	Status      string     `json:"status" gorm:"type:varchar(16);not null;default:'unpaid'"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Student Student `json:"-" gorm:"foreignKey:StudentID"`
}

func (FeeRecord) TableName() string {
	return "fee_records"
}
