package reconcile

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/schoolpay/payments/internal"
	"github.com/schoolpay/payments/internal/core/events"
	"github.com/schoolpay/payments/internal/order"
)

// StatusRecord is the projection of the most recent gateway report for an
// order, keyed by the order's id (collect_id).
type StatusRecord struct {
	CollectID            int64
	OrderAmount          int64
	TransactionAmount    int64
	PaymentMode          *string
	PaymentDetails       *string
	BankReference        *string
	PaymentMessage       *string
	Status               string
	ErrorMessage         *string
	PaymentTime          *time.Time
	GatewayTransactionID *string
	GatewayResponse      json.RawMessage
}

type OrderStore interface {
	GetByID(id int64) (*order.Order, error)
	GetByCustomOrderID(customOrderID string) (*order.Order, error)
	UpdateStatus(id int64, status string) error
}

type StatusRepository interface {
	Upsert(record *StatusRecord) error
	GetByCollectID(collectID int64) (*StatusRecord, error)
}

// WebhookLogRepository persists every delivery before any reconciliation
// happens, so nothing the gateway sends is ever lost.
type WebhookLogRepository interface {
	Append(entry *LogEntry) (created bool, err error)
	MarkProcessed(webhookID string, statusCode int) error
	MarkFailed(webhookID string, errorMessage string) error
	MarkAbandoned(webhookID string, reason string) error
	IncrementRetryCount(webhookID string) error
	ListUnprocessed(limit int) ([]*LogEntry, error)
}

type LogEntry struct {
	WebhookID    string
	EventType    string
	Payload      json.RawMessage
	Headers      json.RawMessage
	StatusCode   int
	Processed    bool
	ErrorMessage *string
	RetryCount   int
	SourceIP     string
	CreatedAt    time.Time
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Engine reconciles gateway reports with orders: it appends the delivery to
// the webhook log, upserts the order's status projection, and moves the
// order through its lifecycle.
type Engine struct {
	orders    OrderStore
	statuses  StatusRepository
	logs      WebhookLogRepository
	publisher EventPublisher
	logger    *slog.Logger
}

func NewEngine(orders OrderStore, statuses StatusRepository, logs WebhookLogRepository, publisher EventPublisher, logger *slog.Logger) *Engine {
	return &Engine{
		orders:    orders,
		statuses:  statuses,
		logs:      logs,
		publisher: publisher,
		logger:    logger,
	}
}

// ProjectOrderStatus maps a gateway report status onto the order lifecycle.
func ProjectOrderStatus(reportStatus string) string {
	switch reportStatus {
	case ReportStatusSuccess:
		return order.StatusCompleted
	case ReportStatusPending:
		return order.StatusProcessing
	default:
		return order.StatusFailed
	}
}

// ProcessWebhook ingests one gateway delivery. The log append always happens
// first; every outcome after that, including an unmatched order, still acks
// the delivery so the gateway stops retrying.
func (e *Engine) ProcessWebhook(ctx context.Context, rawPayload []byte, headers json.RawMessage, sourceIP string) error {
	var envelope WebhookEnvelope
	parseErr := json.Unmarshal(rawPayload, &envelope)

	webhookID := DeriveWebhookID(envelope.ID, rawPayload)

	entry := &LogEntry{
		WebhookID: webhookID,
		EventType: envelope.EventType,
		Payload:   rawPayload,
		Headers:   headers,
		SourceIP:  sourceIP,
	}
	if entry.EventType == "" {
		entry.EventType = "payment.update"
	}

	created, err := e.logs.Append(entry)
	if err != nil {
		e.logger.Error("failed to append webhook log", "error", err, "webhook_id", webhookID)
		return internal.NewInternalError("failed to record webhook", err)
	}
	if !created {
		// duplicate delivery, already handled
		e.logger.Info("duplicate webhook delivery ignored", "webhook_id", webhookID)
		return nil
	}

	if parseErr != nil {
		e.logger.Warn("unparseable webhook payload", "error", parseErr, "webhook_id", webhookID)
		return e.failLog(webhookID, "invalid payload: "+parseErr.Error())
	}

	if envelope.OrderInfo == nil || envelope.OrderInfo.OrderID == "" {
		e.logger.Warn("webhook missing order info", "webhook_id", webhookID)
		return e.failLog(webhookID, "missing order_info")
	}

	dto := fromOrderInfo(envelope.OrderInfo)
	if err := e.reconcileReport(ctx, dto); err != nil {
		e.logger.Warn("webhook reconciliation failed",
			"error", err,
			"webhook_id", webhookID,
			"custom_order_id", dto.CustomOrderID)
		return e.failLog(webhookID, err.Error())
	}

	if err := e.logs.MarkProcessed(webhookID, 200); err != nil {
		e.logger.Error("failed to mark webhook processed", "error", err, "webhook_id", webhookID)
	}

	e.logger.Info("webhook processed",
		"webhook_id", webhookID,
		"custom_order_id", dto.CustomOrderID,
		"status", dto.Status)

	return nil
}

// failLog records the failure on the log row. The delivery is still acked:
// a nil return means the handler responds 200.
func (e *Engine) failLog(webhookID, message string) error {
	if err := e.logs.MarkFailed(webhookID, message); err != nil {
		e.logger.Error("failed to mark webhook log failed", "error", err, "webhook_id", webhookID)
	}
	return nil
}

// ApplyStatusUpdate handles operator-submitted reports. The order code must
// resolve exactly; the lenient matching reserved for gateway deliveries does
// not apply here, so a typo surfaces as NotFound instead of hitting an
// unrelated order by numeric id.
func (e *Engine) ApplyStatusUpdate(ctx context.Context, dto UpdateStatusDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	o, err := e.orders.GetByCustomOrderID(dto.CustomOrderID)
	if err != nil {
		return err
	}

	return e.applyReport(ctx, o, dto)
}

// reconcileReport handles gateway-originated reports, tolerating gateways
// that echo the internal numeric id instead of the order code.
func (e *Engine) reconcileReport(ctx context.Context, dto UpdateStatusDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	o, err := e.matchOrder(dto.CustomOrderID)
	if err != nil {
		return err
	}

	return e.applyReport(ctx, o, dto)
}

// applyReport overwrites the order's status projection with this report and
// moves the order accordingly. Reports always win, even over a terminal
// order status: the latest word from the gateway is taken as truth.
func (e *Engine) applyReport(ctx context.Context, o *order.Order, dto UpdateStatusDTO) error {
	if dto.TransactionAmount > o.OrderAmount {
		e.logger.Warn("transaction amount exceeds order amount",
			"custom_order_id", dto.CustomOrderID,
			"order_amount", o.OrderAmount,
			"transaction_amount", dto.TransactionAmount)
	}

	record := &StatusRecord{
		CollectID:            o.ID,
		OrderAmount:          o.OrderAmount,
		TransactionAmount:    dto.TransactionAmount,
		PaymentMode:          optional(dto.PaymentMode),
		PaymentDetails:       optional(dto.PaymentDetails),
		BankReference:        optional(dto.BankReference),
		PaymentMessage:       optional(dto.PaymentMessage),
		Status:               dto.Status,
		ErrorMessage:         optional(dto.ErrorMessage),
		PaymentTime:          dto.PaymentTime,
		GatewayTransactionID: optional(dto.GatewayTransactionID),
		GatewayResponse:      dto.GatewayResponse,
	}

	if err := e.statuses.Upsert(record); err != nil {
		e.logger.Error("failed to upsert order status", "error", err, "collect_id", o.ID)
		return internal.NewInternalError("failed to store status update", err)
	}

	newStatus := ProjectOrderStatus(dto.Status)
	if err := e.orders.UpdateStatus(o.ID, newStatus); err != nil {
		e.logger.Error("failed to update order status", "error", err, "order_id", o.ID)
		return internal.NewInternalError("failed to update order", err)
	}

	e.logger.Info("order status updated",
		"order_id", o.ID,
		"custom_order_id", o.CustomOrderID,
		"previous_status", o.Status,
		"new_status", newStatus,
		"report_status", dto.Status)

	e.publishTransition(ctx, o, dto, newStatus)

	return nil
}

// matchOrder resolves a report to an order by its code; some gateways echo
// back the internal numeric id instead, so that is tried second.
func (e *Engine) matchOrder(orderRef string) (*order.Order, error) {
	o, err := e.orders.GetByCustomOrderID(orderRef)
	if err == nil {
		return o, nil
	}
	if err != internal.ErrOrderNotFound {
		return nil, err
	}
	if id, convErr := strconv.ParseInt(orderRef, 10, 64); convErr == nil {
		return e.orders.GetByID(id)
	}
	return nil, err
}

func (e *Engine) publishTransition(ctx context.Context, o *order.Order, dto UpdateStatusDTO, newStatus string) {
	if e.publisher == nil {
		return
	}

	switch newStatus {
	case order.StatusCompleted:
		_ = e.publisher.Publish(ctx, events.NewPaymentCompletedEvent(
			o.ID, o.CustomOrderID, dto.TransactionAmount, dto.PaymentMode, dto.BankReference))
	case order.StatusFailed:
		_ = e.publisher.Publish(ctx, events.NewPaymentFailedEvent(
			o.ID, o.CustomOrderID, dto.Status, dto.PaymentMessage))
	}
}

// ReplayUnprocessed re-runs reconciliation for webhook deliveries that never
// completed, bumping retry_count on each attempt.
func (e *Engine) ReplayUnprocessed(ctx context.Context, limit int) (int, error) {
	entries, err := e.logs.ListUnprocessed(limit)
	if err != nil {
		return 0, err
	}

	replayed := 0
	for _, entry := range entries {
		if err := e.logs.IncrementRetryCount(entry.WebhookID); err != nil {
			e.logger.Error("failed to bump retry count", "error", err, "webhook_id", entry.WebhookID)
			continue
		}

		// a payload with no usable order_info will never replay; take it
		// out of the backlog instead of retrying forever
		var envelope WebhookEnvelope
		if err := json.Unmarshal(entry.Payload, &envelope); err != nil || envelope.OrderInfo == nil || envelope.OrderInfo.OrderID == "" {
			e.logger.Warn("abandoning unreplayable webhook log", "webhook_id", entry.WebhookID)
			if err := e.logs.MarkAbandoned(entry.WebhookID, "payload has no usable order_info"); err != nil {
				e.logger.Error("failed to abandon webhook log", "error", err, "webhook_id", entry.WebhookID)
			}
			continue
		}

		dto := fromOrderInfo(envelope.OrderInfo)
		if err := e.reconcileReport(ctx, dto); err != nil {
			e.logger.Warn("replay failed", "error", err, "webhook_id", entry.WebhookID)
			_ = e.logs.MarkFailed(entry.WebhookID, err.Error())
			continue
		}

		if err := e.logs.MarkProcessed(entry.WebhookID, 200); err != nil {
			e.logger.Error("failed to mark replayed webhook processed", "error", err, "webhook_id", entry.WebhookID)
			continue
		}
		replayed++
	}

	return replayed, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
