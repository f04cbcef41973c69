package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	orderDatamodel "github.com/schoolpay/payments/internal/core/datamodel/order"
)

// Order statuses. An order starts as created, moves to processing once a
// pending gateway report arrives, and settles as completed or failed.
const (
	StatusCreated    = "created"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

const (
	GatewayPhonePe  = "PhonePe"
	GatewayRazorpay = "Razorpay"
	GatewayPaytm    = "Paytm"
	GatewayUPI      = "UPI"
)

const DefaultCurrency = "INR"

var SupportedGateways = []string{GatewayPhonePe, GatewayRazorpay, GatewayPaytm, GatewayUPI}

var ValidStatuses = []string{StatusCreated, StatusProcessing, StatusCompleted, StatusFailed}

type StudentInfo struct {
	Name  string `json:"name"`
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Order struct {
	ID            int64       `json:"id"`
	SchoolID      string      `json:"school_id"`
	TrusteeID     string      `json:"trustee_id"`
	StudentInfo   StudentInfo `json:"student_info"`
	Gateway       string      `json:"gateway"`
	CustomOrderID string      `json:"custom_order_id"`
	OrderAmount   int64       `json:"order_amount"`
	Currency      string      `json:"currency"`
	Status        string      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (o *Order) IsTerminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusFailed
}

// GenerateOrderCode builds a human-readable unique order code:
// ORD_<unix millis>_<first 8 chars of a uuid, uppercased>.
func GenerateOrderCode() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD_%d_%s", time.Now().UnixMilli(), suffix)
}

func ToDataModel(o *Order) *orderDatamodel.Order {
	return &orderDatamodel.Order{
		ID:            o.ID,
		SchoolID:      o.SchoolID,
		TrusteeID:     o.TrusteeID,
		StudentName:   o.StudentInfo.Name,
		StudentID:     o.StudentInfo.ID,
		StudentEmail:  o.StudentInfo.Email,
		Gateway:       o.Gateway,
		CustomOrderID: o.CustomOrderID,
		OrderAmount:   o.OrderAmount,
		Currency:      o.Currency,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func FromDataModel(m *orderDatamodel.Order) *Order {
	return &Order{
		ID:        m.ID,
		SchoolID:  m.SchoolID,
		TrusteeID: m.TrusteeID,
		StudentInfo: StudentInfo{
			Name:  m.StudentName,
			ID:    m.StudentID,
			Email: m.StudentEmail,
		},
		Gateway:       m.Gateway,
		CustomOrderID: m.CustomOrderID,
		OrderAmount:   m.OrderAmount,
		Currency:      m.Currency,
		Status:        m.Status,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
