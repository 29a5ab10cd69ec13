package notify

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func fixedClock(t *testing.T) {
	t.Helper()
	orig := now
	now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	t.Cleanup(func() { now = orig })
}

func TestDecodeSummary(t *testing.T) {
	fixedClock(t)

	list, err := Decode([]byte(`{"unseen_count": 3}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d notifications", len(list))
	}
	n := list[0]
	if n.Read || n.Type != "summary" {
		t.Errorf("summary = %+v", n)
	}
	if !strings.Contains(n.Body, "3") {
		t.Errorf("body should state the count: %q", n.Body)
	}
	if !strings.HasPrefix(n.ID, "n-1735787045000-") {
		t.Errorf("id = %q", n.ID)
	}

	one, _ := Decode([]byte(`{"unseenCount": 1}`))
	if one[0].Body != "You have 1 unseen notification" {
		t.Errorf("singular body = %q", one[0].Body)
	}
}

func TestDecodeArray(t *testing.T) {
	list, err := Decode([]byte(`[{"id": "a", "title": "A"}, 7, {"id": "b", "summary": "B"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "a" || list[1].Title != "B" {
		t.Errorf("list = %+v", list)
	}
}

func TestDecodeSingle(t *testing.T) {
	list, err := Decode([]byte(`{"notification": {"id": 42, "title": "Booked", "message": "Villa 3 booked"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != "42" || list[0].Body != "Villa 3 booked" {
		t.Errorf("list = %+v", list)
	}

	// an id makes it a discrete notification even with a count attached
	list, _ = Decode([]byte(`{"id": "x", "unread_count": 5, "title": "T"}`))
	if list[0].ID != "x" || list[0].Type == "summary" {
		t.Errorf("discrete frame treated as summary: %+v", list[0])
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, frame := range []string{`{nope`, `"text"`, `12`, ``} {
		if _, err := Decode([]byte(frame)); err == nil {
			t.Errorf("Decode(%q) should fail", frame)
		}
	}
}

func TestFromPayloadTitlePriority(t *testing.T) {
	tests := []struct {
		payload map[string]any
		want    string
	}{
		{map[string]any{"title": "T", "summary": "S", "message": "M"}, "T"},
		{map[string]any{"summary": "S", "message": "M"}, "S"},
		{map[string]any{"title": "", "message": "M"}, "M"},
		{map[string]any{"title": nil}, "Notification"},
	}
	for _, tt := range tests {
		if got := FromPayload(tt.payload).Title; got != tt.want {
			t.Errorf("FromPayload(%v).Title = %q, want %q", tt.payload, got, tt.want)
		}
	}
}

func TestFromPayloadDefaults(t *testing.T) {
	fixedClock(t)

	raw := map[string]any{"foo": "bar"}
	n := FromPayload(raw)

	if n.ID == "" || n.Type != "general" || n.Read {
		t.Errorf("defaults = %+v", n)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(n.Body), &body); err != nil || body["foo"] != "bar" {
		t.Errorf("body should fall back to the raw payload, got %q", n.Body)
	}
	if n.CreatedAt != "2025-01-02T03:04:05.000Z" {
		t.Errorf("createdAt = %q", n.CreatedAt)
	}
}

func TestFromPayloadFields(t *testing.T) {
	n := FromPayload(map[string]any{
		"notification_id": "abc",
		"kind":            "booking",
		"title":           "New booking",
		"description":     "Villa 3",
		"payload":         map[string]any{"propertyId": float64(3)},
		"is_read":         true,
		"created_at":      float64(1735787045),
	})

	if n.ID != "abc" || n.Type != "booking" || n.Body != "Villa 3" || !n.Read {
		t.Errorf("fields = %+v", n)
	}
	if data, ok := n.Data.(map[string]any); !ok || data["propertyId"] != float64(3) {
		t.Errorf("data = %#v", n.Data)
	}
	if n.CreatedAt != "2025-01-02T03:04:05.000Z" {
		t.Errorf("createdAt = %q", n.CreatedAt)
	}

	ms := FromPayload(map[string]any{"id": "m", "timestamp": float64(1735787045000)})
	if ms.CreatedAt != "2025-01-02T03:04:05.000Z" {
		t.Errorf("millisecond createdAt = %q", ms.CreatedAt)
	}
}

func TestSynthesizedIDsDiffer(t *testing.T) {
	a, b := FromPayload(map[string]any{}), FromPayload(map[string]any{})
	if a.ID == b.ID {
		t.Errorf("ids collided: %s", a.ID)
	}
}
