package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fieldsense/occupancy-service/internal/occupancy"
)

// hoursFile is the YAML shape of the business-hours configuration.
//
//	timezone: America/New_York
//	tracked_devices: ["10045", "10046"]
//	hours:
//	  default:
//	    - open: "08:00"
//	      close: "17:00"
//	  days:
//	    saturday: []        # explicitly closed
//	devices:
//	  "10045":
//	    default:
//	      - open: "06:00"
//	        close: "14:00"
type hoursFile struct {
	Timezone       string              `yaml:"timezone"`
	TrackedDevices []string            `yaml:"tracked_devices"`
	Hours          weekYAML            `yaml:"hours"`
	Devices        map[string]weekYAML `yaml:"devices"`
}

type weekYAML struct {
	Default []windowYAML            `yaml:"default"`
	Days    map[string][]windowYAML `yaml:"days"`
}

type windowYAML struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// HoursLoader reads the business-hours YAML and watches it for changes, so
// schedule edits take effect without a restart. With no path configured it
// serves the always-open default schedule.
type HoursLoader struct {
	path string
	log  *zap.Logger

	mu      sync.RWMutex
	current *occupancy.Schedule
}

// NewHoursLoader performs the initial load and fails fast on a bad file.
func NewHoursLoader(path string, log *zap.Logger) (*HoursLoader, error) {
	l := &HoursLoader{
		path: path,
		log:  log.With(zap.String("component", "hours-config")),
	}

	if path == "" {
		l.current = occupancy.DefaultSchedule()
		return l, nil
	}

	sched, err := l.load()
	if err != nil {
		return nil, err
	}
	l.current = sched
	return l, nil
}

// Schedule returns the current (latest) schedule.
func (l *HoursLoader) Schedule() *occupancy.Schedule {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Watch starts a background goroutine that hot-reloads the schedule on file
// changes. A reload failure keeps the old schedule. Call the returned stop
// function to clean up. No-op when no file is configured.
func (l *HoursLoader) Watch() (stop func(), err error) {
	if l.path == "" {
		return func() {}, nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hours watcher: %w", err)
	}
	if err := w.Add(l.path); err != nil {
		w.Close()
		return nil, fmt.Errorf("hours watcher add %s: %w", l.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					sched, err := l.load()
					if err != nil {
						l.log.Warn("reload failed, keeping previous schedule", zap.Error(err))
						continue
					}
					l.mu.Lock()
					l.current = sched
					l.mu.Unlock()
					l.log.Info("business hours reloaded", zap.String("path", l.path))
				}
			case <-w.Errors:
				// Ignore watcher errors.
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

func (l *HoursLoader) load() (*occupancy.Schedule, error) {
	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read hours config: %w", err)
	}
	return parseHours(raw)
}

func parseHours(raw []byte) (*occupancy.Schedule, error) {
	var file hoursFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse hours config: %w", err)
	}

	loc := time.UTC
	if file.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(file.Timezone)
		if err != nil {
			return nil, fmt.Errorf("timezone %q: %w", file.Timezone, err)
		}
	}

	global, err := buildWeek(file.Hours)
	if err != nil {
		return nil, err
	}

	devices := make(map[string]occupancy.WeekSchedule, len(file.Devices))
	for id, wy := range file.Devices {
		ws, err := buildWeek(wy)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", id, err)
		}
		devices[id] = ws
	}

	return &occupancy.Schedule{
		Location: loc,
		Global:   global,
		Devices:  devices,
		Tracked:  file.TrackedDevices,
	}, nil
}

func buildWeek(wy weekYAML) (occupancy.WeekSchedule, error) {
	ws := occupancy.WeekSchedule{}

	for _, w := range wy.Default {
		win, err := occupancy.ParseWindow(w.Open, w.Close)
		if err != nil {
			return ws, err
		}
		ws.Default = append(ws.Default, win)
	}

	if len(wy.Days) > 0 {
		ws.Days = make(map[time.Weekday][]occupancy.Window, len(wy.Days))
	}
	for name, dayWindows := range wy.Days {
		day, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return ws, fmt.Errorf("unknown weekday %q", name)
		}
		// An explicitly listed day with no windows means closed.
		windows := []occupancy.Window{}
		for _, w := range dayWindows {
			win, err := occupancy.ParseWindow(w.Open, w.Close)
			if err != nil {
				return ws, fmt.Errorf("%s: %w", name, err)
			}
			windows = append(windows, win)
		}
		ws.Days[day] = windows
	}

	return ws, nil
}
