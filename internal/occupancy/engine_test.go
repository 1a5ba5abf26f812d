package occupancy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fieldsense/occupancy-service/internal/models"
)

// fakeStore serves canned events with the store's half-open window
// semantics. A non-nil err fails every query.
type fakeStore struct {
	events []models.EventRecord
	err    error
}

func (f *fakeStore) QueryByDevice(_ context.Context, deviceID string, from, to time.Time) ([]models.EventRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []models.EventRecord{}
	for _, ev := range f.events {
		if ev.DeviceID == deviceID && inWindow(ev.CreatedAt, from, to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeStore) QueryAll(_ context.Context, from, to time.Time) ([]models.EventRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []models.EventRecord{}
	for _, ev := range f.events {
		if inWindow(ev.CreatedAt, from, to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func inWindow(at, from, to time.Time) bool {
	if !from.IsZero() && at.Before(from) {
		return false
	}
	if !to.IsZero() && !at.Before(to) {
		return false
	}
	return true
}

type fixedSchedule struct {
	sched *Schedule
}

func (f fixedSchedule) Schedule() *Schedule { return f.sched }

func at(hour, min int) time.Time {
	// 2024-03-01 is a Friday.
	return time.Date(2024, 3, 1, hour, min, 0, 0, time.UTC)
}

func ev(deviceID string, et models.EventType, t time.Time) models.EventRecord {
	return models.EventRecord{DeviceID: deviceID, Type: et, CreatedAt: t}
}

func newTestEngine(st Store, sched *Schedule) *Engine {
	if sched == nil {
		sched = DefaultSchedule()
	}
	e := NewEngine(st, fixedSchedule{sched})
	e.now = func() time.Time { return at(12, 0) }
	return e
}

func TestCurrentOccupancy(t *testing.T) {
	cases := []struct {
		name   string
		events []models.EventRecord
		asOf   time.Time
		want   int
	}{
		{
			name: "empty log",
			want: 0,
		},
		{
			name:   "single entry counts",
			events: []models.EventRecord{ev("a", models.EventEntry, at(9, 0))},
			want:   1,
		},
		{
			name: "entry then exit cancels",
			events: []models.EventRecord{
				ev("a", models.EventEntry, at(9, 0)),
				ev("a", models.EventExit, at(10, 0)),
			},
			want: 0,
		},
		{
			name: "double entry is a no-op transition",
			events: []models.EventRecord{
				ev("a", models.EventEntry, at(9, 0)),
				ev("a", models.EventEntry, at(9, 30)),
				ev("a", models.EventExit, at(10, 0)),
			},
			want: 0,
		},
		{
			name: "double exit never drifts negative",
			events: []models.EventRecord{
				ev("a", models.EventExit, at(9, 0)),
				ev("a", models.EventExit, at(9, 30)),
				ev("b", models.EventEntry, at(10, 0)),
			},
			want: 1,
		},
		{
			name: "multiple devices",
			events: []models.EventRecord{
				ev("a", models.EventEntry, at(9, 0)),
				ev("b", models.EventEntry, at(9, 10)),
				ev("c", models.EventEntry, at(9, 20)),
				ev("b", models.EventExit, at(11, 0)),
			},
			want: 2,
		},
		{
			name: "asOf ignores later events",
			events: []models.EventRecord{
				ev("a", models.EventEntry, at(9, 0)),
				ev("a", models.EventExit, at(10, 0)),
			},
			asOf: at(9, 30),
			want: 1,
		},
		{
			name: "asOf includes event at that instant",
			events: []models.EventRecord{
				ev("a", models.EventEntry, at(9, 0)),
			},
			asOf: at(9, 0),
			want: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng := newTestEngine(&fakeStore{events: tc.events}, nil)
			got, err := eng.CurrentOccupancy(context.Background(), tc.asOf)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("occupancy = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCurrentOccupancyTrackedSet(t *testing.T) {
	sched := DefaultSchedule()
	sched.Tracked = []string{"a", "b"}

	eng := newTestEngine(&fakeStore{events: []models.EventRecord{
		ev("a", models.EventEntry, at(9, 0)),
		ev("c", models.EventEntry, at(9, 5)), // untracked
	}}, sched)

	got, err := eng.CurrentOccupancy(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Fatalf("occupancy = %d, want 1 (untracked device must not count)", got)
	}
}

func TestCurrentOccupancyReadIdempotence(t *testing.T) {
	eng := newTestEngine(&fakeStore{events: []models.EventRecord{
		ev("a", models.EventEntry, at(9, 0)),
		ev("b", models.EventEntry, at(9, 30)),
	}}, nil)

	first, err := eng.CurrentOccupancy(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := eng.CurrentOccupancy(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("consecutive reads differ: %d vs %d", first, second)
	}
}

func TestCurrentOccupancyPropagatesStoreError(t *testing.T) {
	wantErr := errors.New("backend down")
	eng := newTestEngine(&fakeStore{err: wantErr}, nil)

	if _, err := eng.CurrentOccupancy(context.Background(), time.Time{}); !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
}

func TestDeviceEventCounts(t *testing.T) {
	eng := newTestEngine(&fakeStore{events: []models.EventRecord{
		ev("a", models.EventEntry, at(9, 0)),
		ev("a", models.EventEntry, at(9, 30)),
		ev("a", models.EventExit, at(10, 0)),
		ev("b", models.EventEntry, at(9, 15)), // other device, excluded
	}}, nil)

	counts, err := eng.DeviceEventCounts(context.Background(), "a", at(8, 0), at(12, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts.Entries != 2 || counts.Exits != 1 {
		t.Fatalf("counts = %+v, want {2 1}", counts)
	}
}

func TestDeviceHistoryPassThrough(t *testing.T) {
	events := []models.EventRecord{
		ev("a", models.EventEntry, at(9, 0)),
		ev("a", models.EventExit, at(10, 0)),
		ev("a", models.EventEntry, at(11, 0)),
	}
	eng := newTestEngine(&fakeStore{events: events}, nil)

	got, err := eng.DeviceHistory(context.Background(), "a", at(9, 30), at(11, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Type != models.EventExit {
		t.Fatalf("history = %+v, want only the 10:00 exit", got)
	}
}

func TestInBusinessHours(t *testing.T) {
	sched := &Schedule{
		Location: time.UTC,
		Global: WeekSchedule{
			Default: []Window{{Open: 8 * 60, Close: 17 * 60}},
		},
	}

	entryAtNine := []models.EventRecord{ev("a", models.EventEntry, at(9, 0))}

	cases := []struct {
		name            string
		events          []models.EventRecord
		at              time.Time
		wantActive      bool
		wantWithinHours bool
	}{
		{
			name:            "active within hours",
			events:          entryAtNine,
			at:              at(10, 0),
			wantActive:      true,
			wantWithinHours: true,
		},
		{
			name:            "active outside hours",
			events:          entryAtNine,
			at:              at(20, 0),
			wantActive:      true,
			wantWithinHours: false,
		},
		{
			name: "exited device is inactive",
			events: []models.EventRecord{
				ev("a", models.EventEntry, at(9, 0)),
				ev("a", models.EventExit, at(9, 30)),
			},
			at:              at(10, 0),
			wantActive:      false,
			wantWithinHours: true,
		},
		{
			name:            "no events",
			at:              at(10, 0),
			wantActive:      false,
			wantWithinHours: true,
		},
		{
			name:            "future entry not visible yet",
			events:          entryAtNine,
			at:              at(8, 30),
			wantActive:      false,
			wantWithinHours: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng := newTestEngine(&fakeStore{events: tc.events}, sched)
			status, err := eng.InBusinessHours(context.Background(), "a", tc.at)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status.Active != tc.wantActive {
				t.Fatalf("active = %v, want %v", status.Active, tc.wantActive)
			}
			if status.WithinHours != tc.wantWithinHours {
				t.Fatalf("withinHours = %v, want %v", status.WithinHours, tc.wantWithinHours)
			}
		})
	}
}
