package domain

import "time"

// Webhook event types.
const (
	EventTypeStatus  = "status"
	EventTypeMessage = "message"
	EventTypeRaw     = "raw"
)

// WebhookEvent records one change fragment delivered by the platform.
// Append-only; rows are immutable after insert.
type WebhookEvent struct {
	ID          int64     `json:"id,string" gorm:"primaryKey"`
	Timestamp   time.Time `json:"timestamp"`
	Day         string    `gorm:"index" json:"day"`
	Object      string    `json:"object"`
	EntryID     string    `json:"entry_id"`
	ChangeField string    `json:"change_field"`
	EventType   string    `gorm:"index" json:"event_type"` // status, message or raw
	MessageID   string    `gorm:"index" json:"message_id"`
	Status      string    `json:"status"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	RawPayload  string    `gorm:"type:text" json:"raw_payload"`
}

func (WebhookEvent) TableName() string {
	return "webhook_event"
}
