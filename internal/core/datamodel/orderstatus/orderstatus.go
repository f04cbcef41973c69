package orderstatus

import (
	"encoding/json"
	"time"
)

// OrderStatus is a projection of the latest gateway report for one order.
// CollectID references orders.id and is unique: each order has at most one
// status row, updated in place as reports arrive.
type OrderStatus struct {
	ID                   int64           `gorm:"primaryKey"`
	CollectID            int64           `gorm:"column:collect_id;not null;uniqueIndex"`
	OrderAmount          int64           `gorm:"column:order_amount;not null"`
	TransactionAmount    int64           `gorm:"column:transaction_amount"`
	PaymentMode          *string         `gorm:"column:payment_mode"`
	PaymentDetails       *string         `gorm:"column:payment_details"`
	BankReference        *string         `gorm:"column:bank_reference"`
	PaymentMessage       *string         `gorm:"column:payment_message"`
	Status               string          `gorm:"column:status;default:pending"`
	ErrorMessage         *string         `gorm:"column:error_message"`
	PaymentTime          *time.Time      `gorm:"column:payment_time"`
	GatewayTransactionID *string         `gorm:"column:gateway_transaction_id"`
	GatewayResponse      json.RawMessage `gorm:"column:gateway_response;type:jsonb"`
	CreatedAt            time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;default:now()"`
}
