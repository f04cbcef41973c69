package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	errors "github.com/schoolpay/payments/internal"
	"github.com/schoolpay/payments/internal/core/common/validation"
)

// Gateway report statuses as stored in order_statuses.status.
const (
	ReportStatusPending   = "pending"
	ReportStatusSuccess   = "success"
	ReportStatusFailed    = "failed"
	ReportStatusCancelled = "cancelled"
)

var ValidReportStatuses = []string{ReportStatusPending, ReportStatusSuccess, ReportStatusFailed, ReportStatusCancelled}

var ValidPaymentModes = []string{"upi", "card", "netbanking", "wallet", "pending"}

// WebhookEnvelope is the payload the gateway posts to the callback URL.
// ID is untyped because some gateways send it as a number.
type WebhookEnvelope struct {
	ID        interface{} `json:"id,omitempty"`
	EventType string      `json:"event_type,omitempty"`
	Status    int         `json:"status,omitempty"`
	OrderInfo *OrderInfo  `json:"order_info"`
}

type OrderInfo struct {
	OrderID              string `json:"order_id"`
	OrderAmount          int64  `json:"order_amount"`
	TransactionAmount    int64  `json:"transaction_amount"`
	Gateway              string `json:"gateway"`
	BankReference        string `json:"bank_reference"`
	Status               string `json:"status"`
	PaymentMode          string `json:"payment_mode"`
	PaymentDetails       string `json:"payment_details"`
	PaymentMessage       string `json:"payment_message"`
	PaymentTime          string `json:"payment_time"`
	ErrorMessage         string `json:"error_message"`
	GatewayTransactionID string `json:"transaction_id"`
}

// DeriveWebhookID returns the idempotency key for a delivery: the
// gateway-supplied id when present, otherwise a sha256 of the raw payload so
// byte-identical retries collapse onto one log row.
func DeriveWebhookID(id interface{}, rawPayload []byte) string {
	switch v := id.(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			return v
		}
	case float64:
		return fmt.Sprintf("%.0f", v)
	case json.Number:
		return v.String()
	}

	sum := sha256.Sum256(rawPayload)
	return hex.EncodeToString(sum[:])
}

// NormalizeReportStatus lowercases the gateway status and coerces anything
// unrecognized to failed.
func NormalizeReportStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	for _, valid := range ValidReportStatuses {
		if s == valid {
			return s
		}
	}
	return ReportStatusFailed
}

// ParsePaymentTime parses the gateway timestamp, tolerating both RFC3339
// and date-time without zone. Returns nil when unparseable.
func ParsePaymentTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

// UpdateStatusDTO is a single gateway report, whether delivered by webhook
// or submitted through the manual update endpoint.
type UpdateStatusDTO struct {
	CustomOrderID        string          `json:"custom_order_id"`
	Status               string          `json:"status"`
	TransactionAmount    int64           `json:"transaction_amount"`
	PaymentMode          string          `json:"payment_mode,omitempty"`
	PaymentDetails       string          `json:"payment_details,omitempty"`
	BankReference        string          `json:"bank_reference,omitempty"`
	PaymentMessage       string          `json:"payment_message,omitempty"`
	ErrorMessage         string          `json:"error_message,omitempty"`
	PaymentTime          *time.Time      `json:"payment_time,omitempty"`
	GatewayTransactionID string          `json:"gateway_transaction_id,omitempty"`
	GatewayResponse      json.RawMessage `json:"gateway_response,omitempty"`
}

func (d *UpdateStatusDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("custom_order_id", d.CustomOrderID).Required()
	v.Field("status", d.Status).Required().OneOf(ValidReportStatuses, errors.ErrCodeInvalidStatus)
	if d.PaymentMode != "" {
		v.Field("payment_mode", d.PaymentMode).OneOf(ValidPaymentModes, errors.ErrCodeInvalidPaymentMode)
	}

	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func fromOrderInfo(info *OrderInfo) UpdateStatusDTO {
	var raw json.RawMessage
	if b, err := json.Marshal(info); err == nil {
		raw = b
	}
	return UpdateStatusDTO{
		CustomOrderID:        info.OrderID,
		Status:               NormalizeReportStatus(info.Status),
		TransactionAmount:    info.TransactionAmount,
		PaymentMode:          strings.ToLower(info.PaymentMode),
		PaymentDetails:       info.PaymentDetails,
		BankReference:        info.BankReference,
		PaymentMessage:       info.PaymentMessage,
		ErrorMessage:         info.ErrorMessage,
		PaymentTime:          ParsePaymentTime(info.PaymentTime),
		GatewayTransactionID: info.GatewayTransactionID,
		GatewayResponse:      raw,
	}
}
