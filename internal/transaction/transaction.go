package transaction

import (
	"time"
)

// Transaction is the read model joining an order with its latest gateway
// report. Reportless orders still appear, with the status fields empty.
type Transaction struct {
	CollectID            int64      `json:"collect_id"`
	CustomOrderID        string     `json:"custom_order_id"`
	SchoolID             string     `json:"school_id"`
	StudentName          string     `json:"student_name"`
	Gateway              string     `json:"gateway"`
	OrderAmount          int64      `json:"order_amount"`
	TransactionAmount    *int64     `json:"transaction_amount"`
	Status               string     `json:"status"`
	PaymentMode          *string    `json:"payment_mode"`
	BankReference        *string    `json:"bank_reference"`
	PaymentMessage       *string    `json:"payment_message"`
	PaymentTime          *time.Time `json:"payment_time"`
	GatewayTransactionID *string    `json:"gateway_transaction_id"`
	CreatedAt            time.Time  `json:"created_at"`
}

// StatusPending is reported for orders the gateway has not called back about.
const StatusPending = "pending"

// Query carries list filters and pagination, already validated by the
// service.
type Query struct {
	Status   string
	Gateway  string
	SchoolID string
	Sort     string
	Order    string
	Page     int
	Limit    int
}

func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
	Amount int64  `json:"amount"`
}

type Stats struct {
	TotalOrders int64         `json:"total_orders"`
	TotalAmount int64         `json:"total_amount"`
	ByStatus    []StatusCount `json:"by_status" gorm:"-"`
}
