package order

import (
	errors "github.com/schoolpay/payments/internal"
	"github.com/schoolpay/payments/internal/core/common/validation"
)

type StudentInfoDTO struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	Email string `json:"email"`
}

type CreateOrderDTO struct {
	SchoolID    string         `json:"school_id"`
	TrusteeID   string         `json:"trustee_id"`
	StudentInfo StudentInfoDTO `json:"student_info"`
	Gateway     string         `json:"gateway"`
	OrderAmount int64          `json:"order_amount"`
	Currency    string         `json:"currency"`
}

func (d *CreateOrderDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("school_id", d.SchoolID).Required()
	v.Field("order_amount", d.OrderAmount).Required().Positive(errors.ErrCodeInvalidAmount)
	v.Field("gateway", d.Gateway).Required().OneOf(SupportedGateways, errors.ErrCodeInvalidGateway)
	v.Field("student_info.name", d.StudentInfo.Name).Required().MaxLength(255)
	v.Field("student_info.id", d.StudentInfo.ID).Required().MaxLength(100)
	v.Field("student_info.email", d.StudentInfo.Email).Required().Email()

	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// CreatePaymentDTO creates an order and immediately starts a gateway collect
// request for it.
type CreatePaymentDTO struct {
	CreateOrderDTO
	CallbackURL string `json:"callback_url,omitempty"`
}

type PaymentLinkDTO struct {
	Order            *Order `json:"order"`
	CollectRequestID string `json:"collect_request_id"`
	PaymentURL       string `json:"payment_url"`
}
