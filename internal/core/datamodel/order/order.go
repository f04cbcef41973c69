package order

import (
	"time"
)

type Order struct {
	ID            int64     `gorm:"primaryKey"`
	SchoolID      string    `gorm:"column:school_id;not null;index"`
	TrusteeID     string    `gorm:"column:trustee_id;not null"`
	StudentName   string    `gorm:"column:student_name;not null"`
	StudentID     string    `gorm:"column:student_id;not null"`
	StudentEmail  string    `gorm:"column:student_email;not null"`
	Gateway       string    `gorm:"column:gateway;not null"`
	CustomOrderID string    `gorm:"column:custom_order_id;not null;uniqueIndex"`
	OrderAmount   int64     `gorm:"column:order_amount;not null"`
	Currency      string    `gorm:"column:currency;default:INR"`
	Status        string    `gorm:"column:status;default:created"`
	CreatedAt     time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt     time.Time `gorm:"column:updated_at;default:now()"`
}
