package occupancy

import (
	"testing"
	"time"
)

func mustWindow(t *testing.T, open, close string) Window {
	t.Helper()
	w, err := ParseWindow(open, close)
	if err != nil {
		t.Fatalf("ParseWindow(%q, %q): %v", open, close, err)
	}
	return w
}

func TestParseWindow(t *testing.T) {
	w := mustWindow(t, "08:00", "17:30")
	if w.Open != 8*60 || w.Close != 17*60+30 {
		t.Fatalf("unexpected window %+v", w)
	}

	if _, err := ParseWindow("8am", "17:00"); err == nil {
		t.Fatal("expected error for non-HH:MM open")
	}
	if _, err := ParseWindow("08:00", "25:00"); err == nil {
		t.Fatal("expected error for out-of-range close")
	}
}

func TestScheduleWithinHours(t *testing.T) {
	businessDay := &Schedule{
		Location: time.UTC,
		Global: WeekSchedule{
			Default: []Window{mustWindow(t, "08:00", "17:00")},
			Days: map[time.Weekday][]Window{
				time.Saturday: {}, // closed
			},
		},
	}

	// 2024-03-01 is a Friday, 2024-03-02 a Saturday.
	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"mid morning", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), true},
		{"at open boundary", time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), true},
		{"at close boundary", time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC), false},
		{"evening", time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC), false},
		{"closed saturday", time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := businessDay.WithinHours("dev-1", tc.at); got != tc.want {
				t.Fatalf("WithinHours(%v) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestScheduleOvernightWindow(t *testing.T) {
	s := &Schedule{
		Location: time.UTC,
		Global: WeekSchedule{
			Default: []Window{mustWindow(t, "22:00", "06:00")},
		},
	}

	if !s.WithinHours("dev-1", time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)) {
		t.Fatal("23:00 should be inside an overnight 22:00-06:00 window")
	}
	if !s.WithinHours("dev-1", time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)) {
		t.Fatal("02:00 should be inside an overnight 22:00-06:00 window")
	}
	if s.WithinHours("dev-1", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatal("noon should be outside an overnight 22:00-06:00 window")
	}
}

func TestScheduleDeviceOverride(t *testing.T) {
	s := &Schedule{
		Location: time.UTC,
		Global: WeekSchedule{
			Default: []Window{mustWindow(t, "08:00", "17:00")},
		},
		Devices: map[string]WeekSchedule{
			"night-shift": {Default: []Window{mustWindow(t, "20:00", "23:00")}},
		},
	}

	at := time.Date(2024, 3, 1, 21, 0, 0, 0, time.UTC)
	if s.WithinHours("dev-1", at) {
		t.Fatal("21:00 should be outside global hours")
	}
	if !s.WithinHours("night-shift", at) {
		t.Fatal("21:00 should be inside the night-shift override")
	}
}

func TestScheduleTimezoneConversion(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	s := &Schedule{
		Location: ny,
		Global: WeekSchedule{
			Default: []Window{mustWindow(t, "08:00", "17:00")},
		},
	}

	// 14:00 UTC on 2024-03-01 is 09:00 in New York (EST).
	if !s.WithinHours("dev-1", time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)) {
		t.Fatal("09:00 local should be within hours")
	}
	// 02:00 UTC is 21:00 the previous evening in New York.
	if s.WithinHours("dev-1", time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC)) {
		t.Fatal("21:00 local should be outside hours")
	}
}

func TestDefaultScheduleAlwaysOpen(t *testing.T) {
	s := DefaultSchedule()
	for hour := 0; hour < 24; hour++ {
		at := time.Date(2024, 3, 1, hour, 30, 0, 0, time.UTC)
		if !s.WithinHours("dev-1", at) {
			t.Fatalf("default schedule closed at %v", at)
		}
	}
}
