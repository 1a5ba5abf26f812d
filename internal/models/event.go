package models

import (
	"fmt"
	"strings"
	"time"
)

// EventType is the kind of presence event a device reports.
type EventType string

const (
	EventEntry EventType = "entry"
	EventExit  EventType = "exit"
)

// ParseEventType normalizes a raw event type (trimmed, case-insensitive).
// Anything outside {entry, exit} is a validation error — there is no
// catch-all third category.
func ParseEventType(raw string) (EventType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(EventEntry):
		return EventEntry, nil
	case string(EventExit):
		return EventExit, nil
	default:
		return "", &ValidationError{Field: "eventType", Reason: fmt.Sprintf("must be %q or %q", EventEntry, EventExit)}
	}
}

// EventRecord is one entry/exit observation from a device. Records are
// immutable once stored; corrections are new compensating events.
//
// CreatedAt is always assigned from the server clock at ingestion time,
// never taken from client input. (DeviceID, CreatedAt) is the natural
// ordering key for per-device history.
type EventRecord struct {
	DeviceID  string    `json:"deviceID"`
	Type      EventType `json:"eventType"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEventRecord validates and builds an EventRecord. createdAt must come
// from the server clock; the ingestion gateway supplies it.
func NewEventRecord(deviceID, rawType string, createdAt time.Time) (EventRecord, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return EventRecord{}, &ValidationError{Field: "deviceID", Reason: "must not be empty"}
	}

	et, err := ParseEventType(rawType)
	if err != nil {
		return EventRecord{}, err
	}

	return EventRecord{
		DeviceID:  deviceID,
		Type:      et,
		CreatedAt: createdAt.UTC(),
	}, nil
}

// ValidationError reports a field that failed event validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event: %s %s", e.Field, e.Reason)
}
