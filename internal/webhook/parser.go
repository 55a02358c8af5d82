package webhook

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cast"
	"github.com/warelay/warelay/internal/domain"
	"github.com/warelay/warelay/pkg/common"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxRawPayload bounds the stored copy of an unparseable body.
const maxRawPayload = 64 << 10

// Vendor payload shape: object -> entry[] -> changes[] -> value.
type vendorPayload struct {
	Object string        `json:"object"`
	Entry  []vendorEntry `json:"entry"`
}

type vendorEntry struct {
	ID      string         `json:"id"`
	Changes []vendorChange `json:"changes"`
}

type vendorChange struct {
	Field string      `json:"field"`
	Value vendorValue `json:"value"`
}

type vendorValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Metadata         vendorMetadata    `json:"metadata"`
	Statuses         []statusFragment  `json:"statuses"`
	Messages         []messageFragment `json:"messages"`
}

type vendorMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type statusFragment struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"` // unix seconds as string
	RecipientID string `json:"recipient_id"`
}

type messageFragment struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// StatusUpdate is the reconciler's view of one delivery-status fragment.
type StatusUpdate struct {
	MessageID string
	Status    string
	Timestamp time.Time
}

// ParseEvents flattens a vendor webhook body into event rows plus the
// status updates the reconciler should apply. Ingestion never fails: a
// body that cannot be parsed, or that parses to nothing recognizable,
// yields a single raw event carrying the body.
func ParseEvents(body []byte, now time.Time, day string) ([]domain.WebhookEvent, []StatusUpdate) {
	var p vendorPayload
	if err := json.Unmarshal(body, &p); err != nil || len(p.Entry) == 0 {
		return []domain.WebhookEvent{rawEvent(body, now, day)}, nil
	}

	var events []domain.WebhookEvent
	var updates []StatusUpdate
	for _, e := range p.Entry {
		for _, ch := range e.Changes {
			for _, s := range ch.Value.Statuses {
				fragment, _ := json.Marshal(s)
				events = append(events, domain.WebhookEvent{
					ID:          common.UUIDint64(),
					Timestamp:   now,
					Day:         day,
					Object:      p.Object,
					EntryID:     e.ID,
					ChangeField: ch.Field,
					EventType:   domain.EventTypeStatus,
					MessageID:   s.ID,
					Status:      s.Status,
					To:          s.RecipientID,
					RawPayload:  string(fragment),
				})
				updates = append(updates, StatusUpdate{
					MessageID: s.ID,
					Status:    s.Status,
					Timestamp: statusTime(s.Timestamp, now),
				})
			}
			for _, m := range ch.Value.Messages {
				fragment, _ := json.Marshal(m)
				events = append(events, domain.WebhookEvent{
					ID:          common.UUIDint64(),
					Timestamp:   now,
					Day:         day,
					Object:      p.Object,
					EntryID:     e.ID,
					ChangeField: ch.Field,
					EventType:   domain.EventTypeMessage,
					MessageID:   m.ID,
					From:        m.From,
					To:          ch.Value.Metadata.DisplayPhoneNumber,
					RawPayload:  string(fragment),
				})
			}
		}
	}

	if len(events) == 0 {
		return []domain.WebhookEvent{rawEvent(body, now, day)}, nil
	}
	return events, updates
}

func rawEvent(body []byte, now time.Time, day string) domain.WebhookEvent {
	if len(body) > maxRawPayload {
		body = body[:maxRawPayload]
	}
	return domain.WebhookEvent{
		ID:         common.UUIDint64(),
		Timestamp:  now,
		Day:        day,
		EventType:  domain.EventTypeRaw,
		RawPayload: string(body),
	}
}

// statusTime converts the vendor's unix-seconds string; arrival time is
// the fallback for missing or garbage values.
func statusTime(ts string, now time.Time) time.Time {
	sec := cast.ToInt64(ts)
	if sec <= 0 {
		return now
	}
	return time.Unix(sec, 0)
}
