package webhooklog

import (
	"encoding/json"
	"time"
)

type WebhookLog struct {
	ID           int64           `gorm:"primaryKey"`
	WebhookID    string          `gorm:"column:webhook_id;not null;uniqueIndex"`
	EventType    string          `gorm:"column:event_type;not null"`
	Payload      json.RawMessage `gorm:"column:payload;type:jsonb"`
	Headers      json.RawMessage `gorm:"column:headers;type:jsonb"`
	StatusCode   int             `gorm:"column:status_code"`
	Processed    bool            `gorm:"column:processed;default:false"`
	ErrorMessage *string         `gorm:"column:error_message"`
	RetryCount   int             `gorm:"column:retry_count;default:0"`
	SourceIP     string          `gorm:"column:source_ip"`
	CreatedAt    time.Time       `gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;default:now()"`
}
