package school

import (
	"time"
)

type School struct {
	ID           int64     `gorm:"primaryKey"`
	SchoolID     string    `gorm:"column:school_id;not null;uniqueIndex"`
	Name         string    `gorm:"column:name;not null"`
	ContactEmail string    `gorm:"column:contact_email"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `gorm:"column:updated_at;default:now()"`
}
