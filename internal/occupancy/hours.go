package occupancy

import (
	"fmt"
	"time"
)

// Window is a half-open [Open, Close) time-of-day range in minutes from
// midnight. A window whose Close is at or before its Open wraps past
// midnight.
type Window struct {
	Open  int
	Close int
}

// ParseWindow builds a Window from "HH:MM" strings.
func ParseWindow(open, close string) (Window, error) {
	o, err := parseClock(open)
	if err != nil {
		return Window{}, fmt.Errorf("open: %w", err)
	}
	c, err := parseClock(close)
	if err != nil {
		return Window{}, fmt.Errorf("close: %w", err)
	}
	return Window{Open: o, Close: c}, nil
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%q is not HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func (w Window) contains(minute int) bool {
	if w.Close <= w.Open {
		// Overnight window.
		return minute >= w.Open || minute < w.Close
	}
	return minute >= w.Open && minute < w.Close
}

// WeekSchedule maps weekdays to open windows. A weekday present in Days
// (even with no windows, meaning closed) overrides Default.
type WeekSchedule struct {
	Default []Window
	Days    map[time.Weekday][]Window
}

func (ws WeekSchedule) windowsFor(day time.Weekday) []Window {
	if windows, ok := ws.Days[day]; ok {
		return windows
	}
	return ws.Default
}

// Schedule is the business-hours configuration: one location, a global week
// schedule, optional per-device overrides, and the tracked device set used
// for occupancy counting.
type Schedule struct {
	Location *time.Location
	Global   WeekSchedule
	Devices  map[string]WeekSchedule

	// Tracked restricts occupancy counting to these devices. Empty means
	// every device seen in the event log is tracked.
	Tracked []string
}

// DefaultSchedule is always-open in UTC with no tracked-device restriction.
// Used when no business-hours config file is supplied.
func DefaultSchedule() *Schedule {
	return &Schedule{
		Location: time.UTC,
		Global: WeekSchedule{
			Default: []Window{{Open: 0, Close: 0}}, // wraps: whole day
		},
	}
}

// WithinHours reports whether at, converted to the schedule's location,
// falls inside an open window for deviceID's weekday.
func (s *Schedule) WithinHours(deviceID string, at time.Time) bool {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	local := at.In(loc)
	minute := local.Hour()*60 + local.Minute()

	ws := s.Global
	if dev, ok := s.Devices[deviceID]; ok {
		ws = dev
	}

	for _, w := range ws.windowsFor(local.Weekday()) {
		if w.contains(minute) {
			return true
		}
	}
	return false
}

// trackedSet returns the tracked devices as a set, or nil when the schedule
// tracks every device.
func (s *Schedule) trackedSet() map[string]struct{} {
	if len(s.Tracked) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(s.Tracked))
	for _, id := range s.Tracked {
		set[id] = struct{}{}
	}
	return set
}
