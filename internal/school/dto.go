package school

import (
	"github.com/schoolpay/payments/internal/core/common/validation"
)

type CreateSchoolDTO struct {
	SchoolID     string `json:"school_id"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
}

func (d *CreateSchoolDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("school_id", d.SchoolID).Required().MaxLength(100)
	v.Field("name", d.Name).Required().MaxLength(255)
	if d.ContactEmail != "" {
		v.Field("contact_email", d.ContactEmail).Email()
	}

	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
