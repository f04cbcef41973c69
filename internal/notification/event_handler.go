package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/schoolpay/payments/internal/core/events"
)

// EventHandler records payment outcomes for follow-up (receipts, trustee
// alerts). Delivery channels are external; this handler writes the audit
// trail they consume.
type EventHandler struct {
	logger *slog.Logger
}

func NewEventHandler(logger *slog.Logger) *EventHandler {
	return &EventHandler{logger: logger}
}

func (h *EventHandler) HandleOrderCreated(ctx context.Context, event events.Event) error {
	orderEvent, ok := event.(*events.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("expected OrderCreatedEvent, got %T", event)
	}

	h.logger.Info("order awaiting payment",
		"order_id", orderEvent.OrderID,
		"custom_order_id", orderEvent.CustomOrderID,
		"school_id", orderEvent.SchoolID,
		"amount", orderEvent.Amount,
		"gateway", orderEvent.Gateway,
		"event_id", orderEvent.EventID())

	return nil
}

func (h *EventHandler) HandlePaymentCompleted(ctx context.Context, event events.Event) error {
	paymentEvent, ok := event.(*events.PaymentCompletedEvent)
	if !ok {
		return fmt.Errorf("expected PaymentCompletedEvent, got %T", event)
	}

	h.logger.Info("payment receipt due",
		"order_id", paymentEvent.OrderID,
		"custom_order_id", paymentEvent.CustomOrderID,
		"transaction_amount", paymentEvent.TransactionAmount,
		"payment_mode", paymentEvent.PaymentMode,
		"bank_reference", paymentEvent.BankReference,
		"event_id", paymentEvent.EventID())

	return nil
}

func (h *EventHandler) HandlePaymentFailed(ctx context.Context, event events.Event) error {
	paymentEvent, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		return fmt.Errorf("expected PaymentFailedEvent, got %T", event)
	}

	h.logger.Warn("payment failure alert due",
		"order_id", paymentEvent.OrderID,
		"custom_order_id", paymentEvent.CustomOrderID,
		"gateway_status", paymentEvent.GatewayStatus,
		"payment_message", paymentEvent.PaymentMessage,
		"event_id", paymentEvent.EventID())

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeOrderCreated, h.HandleOrderCreated)
	eventBus.Subscribe(events.EventTypePaymentCompleted, h.HandlePaymentCompleted)
	eventBus.Subscribe(events.EventTypePaymentFailed, h.HandlePaymentFailed)

	h.logger.Info("notification event handlers registered",
		"handlers", []string{
			events.EventTypeOrderCreated,
			events.EventTypePaymentCompleted,
			events.EventTypePaymentFailed,
		})
}
