package postgres

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	webhooklogDatamodel "github.com/schoolpay/payments/internal/core/datamodel/webhooklog"
	"github.com/schoolpay/payments/internal/reconcile"
)

type WebhookLogRepository struct {
	db *gorm.DB
}

func NewWebhookLogRepository(db *gorm.DB) reconcile.WebhookLogRepository {
	return &WebhookLogRepository{
		db: db,
	}
}

// Append inserts the delivery. A unique violation on webhook_id means the
// delivery was seen before: created is false and no error is returned.
func (r *WebhookLogRepository) Append(entry *reconcile.LogEntry) (bool, error) {
	m := &webhooklogDatamodel.WebhookLog{
		WebhookID:  entry.WebhookID,
		EventType:  entry.EventType,
		Payload:    entry.Payload,
		Headers:    entry.Headers,
		StatusCode: entry.StatusCode,
		Processed:  false,
		RetryCount: 0,
		SourceIP:   entry.SourceIP,
	}

	if err := r.db.Create(m).Error; err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}

	entry.CreatedAt = m.CreatedAt
	return true, nil
}

func (r *WebhookLogRepository) MarkProcessed(webhookID string, statusCode int) error {
	return r.db.Model(&webhooklogDatamodel.WebhookLog{}).
		Where("webhook_id = ?", webhookID).
		Updates(map[string]interface{}{
			"processed":     true,
			"status_code":   statusCode,
			"error_message": nil,
			"updated_at":    time.Now(),
		}).Error
}

func (r *WebhookLogRepository) MarkFailed(webhookID string, errorMessage string) error {
	return r.db.Model(&webhooklogDatamodel.WebhookLog{}).
		Where("webhook_id = ?", webhookID).
		Updates(map[string]interface{}{
			"processed":     false,
			"error_message": errorMessage,
			"updated_at":    time.Now(),
		}).Error
}

// MarkAbandoned retires a delivery that can never reconcile. Setting
// processed keeps it out of ListUnprocessed; the reason stays on the row.
func (r *WebhookLogRepository) MarkAbandoned(webhookID string, reason string) error {
	return r.db.Model(&webhooklogDatamodel.WebhookLog{}).
		Where("webhook_id = ?", webhookID).
		Updates(map[string]interface{}{
			"processed":     true,
			"error_message": reason,
			"updated_at":    time.Now(),
		}).Error
}

func (r *WebhookLogRepository) IncrementRetryCount(webhookID string) error {
	return r.db.Model(&webhooklogDatamodel.WebhookLog{}).
		Where("webhook_id = ?", webhookID).
		UpdateColumn("retry_count", gorm.Expr("retry_count + 1")).Error
}

func (r *WebhookLogRepository) ListUnprocessed(limit int) ([]*reconcile.LogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	var models []*webhooklogDatamodel.WebhookLog
	err := r.db.Where("processed = ?", false).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	entries := make([]*reconcile.LogEntry, 0, len(models))
	for _, m := range models {
		entries = append(entries, &reconcile.LogEntry{
			WebhookID:    m.WebhookID,
			EventType:    m.EventType,
			Payload:      m.Payload,
			Headers:      m.Headers,
			StatusCode:   m.StatusCode,
			Processed:    m.Processed,
			ErrorMessage: m.ErrorMessage,
			RetryCount:   m.RetryCount,
			SourceIP:     m.SourceIP,
			CreatedAt:    m.CreatedAt,
		})
	}
	return entries, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
