package domain

import "time"

// SendRecord is created once per successful outbound template send and is
// the stateful half of the relay: later delivery-status webhooks update it
// through the message_id join key. Rows are never deleted.
type SendRecord struct {
	ID              int64      `json:"id,string" gorm:"primaryKey"`
	Timestamp       time.Time  `json:"timestamp"`
	Day             string     `gorm:"index" json:"day"` // YYYY-MM-DD in the service timezone
	Phone           string     `json:"phone"`
	Name            string     `json:"name"`
	MessageID       string     `gorm:"index" json:"message_id"` // vendor wamid, empty until known
	Status          string     `json:"status"`                  // last delivery status seen, empty until first status event
	StatusTimestamp *time.Time `json:"status_timestamp"`
}

func (SendRecord) TableName() string {
	return "send_record"
}
