package gateway

import (
	"encoding/json"
	"time"
)

// EventType is the kind of message pushed to WebSocket clients
type EventType string

const (
	// EventTypeSnapshot carries the full current list of one collection
	EventTypeSnapshot EventType = "snapshot"
)

// SnapshotEvent is pushed every time one of the live lists is published.
// Version increases per collection; clients drop events whose version is not
// newer than the last one they applied.
type SnapshotEvent struct {
	Type       EventType       `json:"type"`
	Collection string          `json:"collection"`
	Version    uint64          `json:"version"`
	Timestamp  time.Time       `json:"timestamp"`
	Data       json.RawMessage `json:"data"`
}

func newSnapshotEvent[T any](collection string, items []T, version uint64) (*SnapshotEvent, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return &SnapshotEvent{
		Type:       EventTypeSnapshot,
		Collection: collection,
		Version:    version,
		Timestamp:  time.Now().UTC(),
		Data:       data,
	}, nil
}
