package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"villas/fallback"
	"villas/utils"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// AckState tracks the server round-trip of a read acknowledgement.
type AckState string

const (
	AckNone      AckState = ""
	AckPending   AckState = "pending"
	AckCommitted AckState = "committed"
	AckFailed    AckState = "failed"
)

// Notification is one entry of the notification feed.
type Notification struct {
	ID        string   `json:"id" bson:"_id"`
	Type      string   `json:"type" bson:"type"`
	Title     string   `json:"title" bson:"title"`
	Body      string   `json:"body" bson:"body"`
	Data      any      `json:"data,omitempty" bson:"data,omitempty"`
	Read      bool     `json:"read" bson:"read"`
	CreatedAt string   `json:"createdAt" bson:"createdAt"`
	AckState  AckState `json:"ackState,omitempty" bson:"-"`
}

// ErrUnknownFrame is returned for JSON frames that are neither an object
// nor an array.
var ErrUnknownFrame = errors.New("frame is neither an object nor an array")

var now = time.Now

// newID builds an id for payloads that arrive without one. It is unique
// enough within one session; replays after a reconnect may still collide.
func newID() string {
	random := strings.ReplaceAll(utils.GetUUID(), "-", "")
	return fmt.Sprintf("n-%d-%s", now().UnixMilli(), random[:8])
}

func timestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Decode turns one inbound frame into notifications. Three shapes are
// understood: an unseen-count summary, an array of payloads, or a single
// payload (optionally wrapped in a "notification" field).
func Decode(frame []byte) ([]Notification, error) {
	var raw any
	if err := json.Unmarshal(frame, &raw); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	switch v := raw.(type) {
	case []any:
		out := make([]Notification, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				log.Printf("⚠️ notification frame: element %d is not an object", i)
				continue
			}
			out = append(out, FromPayload(m))
		}
		return out, nil

	case map[string]any:
		if count, ok := summaryCount(v); ok {
			return []Notification{Summary(count)}, nil
		}
		if inner, ok := fallback.Object(v, "notification"); ok {
			return []Notification{FromPayload(inner)}, nil
		}
		return []Notification{FromPayload(v)}, nil
	}

	return nil, ErrUnknownFrame
}

// summaryCount reports the unseen count of a summary frame. A frame that
// also carries an id or a nested notification is a discrete one.
func summaryCount(m map[string]any) (int, bool) {
	count, ok := fallback.Int(m, "unseen_count", "unseenCount", "unread_count", "unreadCount")
	if !ok {
		return 0, false
	}
	if _, hasID := fallback.String(m, "id", "notification_id", "notificationId"); hasID {
		return 0, false
	}
	if _, nested := fallback.Object(m, "notification"); nested {
		return 0, false
	}
	return count, true
}

// Summary synthesizes the unread entry shown for a summary frame.
func Summary(count int) Notification {
	noun := "notifications"
	if count == 1 {
		noun = "notification"
	}
	return Notification{
		ID:        newID(),
		Type:      "summary",
		Title:     "New notifications",
		Body:      fmt.Sprintf("You have %d unseen %s", count, noun),
		Data:      map[string]any{"unseenCount": count},
		Read:      false,
		CreatedAt: timestamp(now()),
	}
}

// FromPayload maps a wire payload onto a Notification, tolerating missing
// fields.
func FromPayload(m map[string]any) Notification {
	n := Notification{}

	if id, ok := fallback.String(m, "id", "notification_id", "notificationId", "_id"); ok {
		n.ID = id
	} else {
		n.ID = newID()
	}

	n.Type, _ = fallback.String(m, "type", "kind", "event", "category")
	if n.Type == "" {
		n.Type = "general"
	}

	n.Title, _ = fallback.String(m, "title", "summary", "message")
	if n.Title == "" {
		n.Title = "Notification"
	}

	if body, ok := fallback.String(m, "body", "message", "description", "text", "content"); ok {
		n.Body = body
	} else {
		raw, _ := json.Marshal(m)
		n.Body = string(raw)
	}

	if data, ok := fallback.First(m, fallback.Key("data"), fallback.Key("payload")); ok {
		n.Data = data
	} else {
		n.Data = m
	}

	n.Read, _ = fallback.Bool(m, "read", "is_read", "isRead", "seen")
	n.CreatedAt = createdAt(m)

	return n
}

// createdAt normalises the creation time. Unix numbers (seconds or
// milliseconds) are converted so that string ordering stays meaningful.
func createdAt(m map[string]any) string {
	v, ok := fallback.First(m,
		fallback.Key("created_at"),
		fallback.Key("createdAt"),
		fallback.Key("timestamp"),
		fallback.Key("time"),
	)
	if !ok {
		return timestamp(now())
	}

	switch t := v.(type) {
	case string:
		return t
	case float64:
		sec := int64(t)
		if t > 1e12 {
			return timestamp(time.UnixMilli(int64(t)))
		}
		return timestamp(time.Unix(sec, 0))
	}
	return timestamp(now())
}
