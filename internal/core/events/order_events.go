package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeOrderCreated     = "order.created"
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
)

type OrderCreatedEvent struct {
	BaseEvent
	OrderID       int64  `json:"order_id"`
	CustomOrderID string `json:"custom_order_id"`
	SchoolID      string `json:"school_id"`
	Amount        int64  `json:"amount"`
	Gateway       string `json:"gateway"`
}

func NewOrderCreatedEvent(orderID int64, customOrderID, schoolID string, amount int64, gateway string) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeOrderCreated,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":        orderID,
				"custom_order_id": customOrderID,
				"school_id":       schoolID,
				"amount":          amount,
				"gateway":         gateway,
			},
		},
		OrderID:       orderID,
		CustomOrderID: customOrderID,
		SchoolID:      schoolID,
		Amount:        amount,
		Gateway:       gateway,
	}
}

type PaymentCompletedEvent struct {
	BaseEvent
	OrderID           int64  `json:"order_id"`
	CustomOrderID     string `json:"custom_order_id"`
	TransactionAmount int64  `json:"transaction_amount"`
	PaymentMode       string `json:"payment_mode"`
	BankReference     string `json:"bank_reference"`
}

func NewPaymentCompletedEvent(orderID int64, customOrderID string, transactionAmount int64, paymentMode, bankReference string) *PaymentCompletedEvent {
	return &PaymentCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":           orderID,
				"custom_order_id":    customOrderID,
				"transaction_amount": transactionAmount,
				"payment_mode":       paymentMode,
				"bank_reference":     bankReference,
			},
		},
		OrderID:           orderID,
		CustomOrderID:     customOrderID,
		TransactionAmount: transactionAmount,
		PaymentMode:       paymentMode,
		BankReference:     bankReference,
	}
}

type PaymentFailedEvent struct {
	BaseEvent
	OrderID        int64  `json:"order_id"`
	CustomOrderID  string `json:"custom_order_id"`
	GatewayStatus  string `json:"gateway_status"`
	PaymentMessage string `json:"payment_message"`
}

func NewPaymentFailedEvent(orderID int64, customOrderID, gatewayStatus, paymentMessage string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentFailed,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":        orderID,
				"custom_order_id": customOrderID,
				"gateway_status":  gatewayStatus,
				"payment_message": paymentMessage,
			},
		},
		OrderID:        orderID,
		CustomOrderID:  customOrderID,
		GatewayStatus:  gatewayStatus,
		PaymentMessage: paymentMessage,
	}
}
