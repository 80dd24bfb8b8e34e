// Package event turns heterogeneous LiveKit webhook payloads into one
// canonical record.
package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the loosely-typed decoded webhook payload. The sending service
// does not guarantee a closed schema, so fields are inspected one by one
// instead of binding to a struct.
type Envelope map[string]interface{}

// ParseEnvelope decodes the raw body. Decoding happens only after the raw
// bytes have been verified.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("event: decode payload: %w", err)
	}
	return env, nil
}

// NormalizedEvent is the canonical fixed-shape record derived once per
// delivery and never mutated afterward. Absent upstream fields stay empty;
// downstream logic decides what to do with them.
type NormalizedEvent struct {
	Kind          string
	RoomSID       string
	RoomName      string
	OccurredAt    time.Time
	TimeDefaulted bool // OccurredAt fell back to the receipt time
}

// Normalize resolves room identity and occurrence time from env. The room
// object may sit at the top level or under a data or payload wrapper; the
// first one found wins. Identity precedence: the room object's sid, then a
// top-level room_sid, then the room object's name. Time precedence: numeric
// created_at, then numeric timestamp (both epoch milliseconds), then
// receivedAt with the TimeDefaulted flag set. Normalization never fails.
func Normalize(env Envelope, receivedAt time.Time) NormalizedEvent {
	ne := NormalizedEvent{
		Kind:          stringField(env, "event"),
		OccurredAt:    receivedAt.UTC(),
		TimeDefaulted: true,
	}

	room := roomObject(env)
	ne.RoomSID = stringField(room, "sid")
	if ne.RoomSID == "" {
		ne.RoomSID = stringField(env, "room_sid")
	}
	ne.RoomName = stringField(room, "name")

	if ms, ok := numberField(env, "created_at"); ok {
		ne.OccurredAt = time.UnixMilli(ms).UTC()
		ne.TimeDefaulted = false
	} else if ms, ok := numberField(env, "timestamp"); ok {
		ne.OccurredAt = time.UnixMilli(ms).UTC()
		ne.TimeDefaulted = false
	}

	return ne
}

// roomObject finds the room object: top-level room, then data.room, then
// payload.room.
func roomObject(env Envelope) map[string]interface{} {
	for _, path := range [][]string{{"room"}, {"data", "room"}, {"payload", "room"}} {
		node := map[string]interface{}(env)
		ok := true
		for _, key := range path {
			child, isMap := node[key].(map[string]interface{})
			if !isMap {
				ok = false
				break
			}
			node = child
		}
		if ok {
			return node
		}
	}
	return nil
}

func stringField(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// numberField returns the field as epoch milliseconds. JSON numbers decode
// as float64; anything else (string timestamps included) is treated as
// absent rather than guessed at.
func numberField(m map[string]interface{}, key string) (int64, bool) {
	if m == nil {
		return 0, false
	}
	f, ok := m[key].(float64)
	if !ok {
		return 0, false
	}
	return int64(f), true
}
