// Package occupancy derives aggregate presence state from the event log.
// Every operation is a pure read over store query results; nothing here
// mutates state.
package occupancy

import (
	"context"
	"time"

	"github.com/fieldsense/occupancy-service/internal/models"
)

// Store is the read side of the event log the engine derives from.
type Store interface {
	QueryByDevice(ctx context.Context, deviceID string, from, to time.Time) ([]models.EventRecord, error)
	QueryAll(ctx context.Context, from, to time.Time) ([]models.EventRecord, error)
}

// ScheduleProvider yields the current business-hours schedule. Backed by the
// hot-reloading config loader in production.
type ScheduleProvider interface {
	Schedule() *Schedule
}

// EventCounts tallies one device's events over a window.
type EventCounts struct {
	Entries int64 `json:"entryCount"`
	Exits   int64 `json:"exitCount"`
}

// PresenceStatus reports both halves of the business-hours check
// separately, so callers can tell "device off-shift" from "device present
// outside hours".
type PresenceStatus struct {
	Active      bool                `json:"active"`
	WithinHours bool                `json:"withinHours"`
	LastEvent   *models.EventRecord `json:"lastEvent,omitempty"`
}

// Engine answers occupancy and device-status queries.
type Engine struct {
	store Store
	hours ScheduleProvider
	now   func() time.Time
}

func NewEngine(store Store, hours ScheduleProvider) *Engine {
	return &Engine{store: store, hours: hours, now: time.Now}
}

// CurrentOccupancy counts devices whose last event at or before asOf is an
// entry. Reasoning from last-known-state per device (rather than a running
// entry−exit tally) makes repeated entries or exits no-ops: the count never
// double-increments and never drifts negative. A zero asOf means now.
func (e *Engine) CurrentOccupancy(ctx context.Context, asOf time.Time) (int, error) {
	if asOf.IsZero() {
		asOf = e.now()
	}

	// Store windows are half-open [from, to); nudge to include asOf itself.
	events, err := e.store.QueryAll(ctx, time.Time{}, asOf.Add(time.Nanosecond))
	if err != nil {
		return 0, err
	}

	// Events arrive ascending by created_at, so the map ends up holding
	// each device's last event type.
	last := make(map[string]models.EventType)
	for _, ev := range events {
		last[ev.DeviceID] = ev.Type
	}

	tracked := e.hours.Schedule().trackedSet()

	count := 0
	for deviceID, et := range last {
		if tracked != nil {
			if _, ok := tracked[deviceID]; !ok {
				continue
			}
		}
		if et == models.EventEntry {
			count++
		}
	}
	return count, nil
}

// DeviceHistory returns one device's events over [from, to), ascending.
// A thin pass-through, kept as its own operation because it is its own
// external contract.
func (e *Engine) DeviceHistory(ctx context.Context, deviceID string, from, to time.Time) ([]models.EventRecord, error) {
	return e.store.QueryByDevice(ctx, deviceID, from, to)
}

// DeviceEventCounts tallies entries and exits for one device over [from, to).
// Validation at ingestion guarantees there is no third event type to count.
func (e *Engine) DeviceEventCounts(ctx context.Context, deviceID string, from, to time.Time) (EventCounts, error) {
	events, err := e.store.QueryByDevice(ctx, deviceID, from, to)
	if err != nil {
		return EventCounts{}, err
	}

	var counts EventCounts
	for _, ev := range events {
		switch ev.Type {
		case models.EventEntry:
			counts.Entries++
		case models.EventExit:
			counts.Exits++
		}
	}
	return counts, nil
}

// InBusinessHours reports whether deviceID is active (last event at or
// before at is an entry) and whether at falls inside the configured
// business-hours window for its weekday. A zero at means now.
func (e *Engine) InBusinessHours(ctx context.Context, deviceID string, at time.Time) (PresenceStatus, error) {
	if at.IsZero() {
		at = e.now()
	}

	events, err := e.store.QueryByDevice(ctx, deviceID, time.Time{}, at.Add(time.Nanosecond))
	if err != nil {
		return PresenceStatus{}, err
	}

	var status PresenceStatus
	if len(events) > 0 {
		lastEvent := events[len(events)-1]
		status.LastEvent = &lastEvent
		status.Active = lastEvent.Type == models.EventEntry
	}
	status.WithinHours = e.hours.Schedule().WithinHours(deviceID, at)

	return status, nil
}
