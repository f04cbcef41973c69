package school

import (
	"time"

	"github.com/schoolpay/payments/internal/core/datamodel/school"
)

// School is reference data: orders and transactions hang off its external
// SchoolID, not the row id.
type School struct {
	ID           int64     `json:"id"`
	SchoolID     string    `json:"school_id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s *School) ToDataModel() *school.School {
	return &school.School{
		ID:           s.ID,
		SchoolID:     s.SchoolID,
		Name:         s.Name,
		ContactEmail: s.ContactEmail,
		IsActive:     s.IsActive,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func FromDataModel(dm *school.School) *School {
	return &School{
		ID:           dm.ID,
		SchoolID:     dm.SchoolID,
		Name:         dm.Name,
		ContactEmail: dm.ContactEmail,
		IsActive:     dm.IsActive,
		CreatedAt:    dm.CreatedAt,
		UpdatedAt:    dm.UpdatedAt,
	}
}
