// Package alarm delivers event reminders ahead of their start time.
package alarm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/calendar/internal/calendar"
	"github.com/mmynk/calendar/internal/metrics"
	"github.com/mmynk/calendar/internal/models"
)

// Message returns the reminder text for e.
func Message(e models.Event) string {
	return fmt.Sprintf("%d분 후 %s 일정이 시작됩니다.", e.NotificationTime, e.Title)
}

// Due reports whether the alarm for e should fire at now: its alarm time has
// arrived and the event has not started yet.
func Due(e models.Event, now time.Time) bool {
	return !now.Before(e.AlarmAt()) && now.Before(e.Start())
}

// Watcher notifies once per event id when its alarm is due.
type Watcher struct {
	events   func() []models.Event
	notifier calendar.Notifier
	metrics  *metrics.Metrics

	// Refresh, when set, runs before every scheduled check.
	Refresh func(ctx context.Context)

	mu       sync.Mutex
	notified map[string]bool
}

// NewWatcher creates a Watcher over the events returned by events, typically
// Coordinator.Events. m may be nil.
func NewWatcher(events func() []models.Event, notifier calendar.Notifier, m *metrics.Metrics) *Watcher {
	return &Watcher{
		events:   events,
		notifier: notifier,
		metrics:  m,
		notified: make(map[string]bool),
	}
}

// Check fires every alarm due at now that has not fired yet and returns the
// events it notified for, ordered by start time.
func (w *Watcher) Check(now time.Time) []models.Event {
	var due []models.Event
	upcoming := make(map[string]bool)
	for _, e := range w.events() {
		if e.ID == "" || !now.Before(e.Start()) {
			continue
		}
		upcoming[e.ID] = true
		if Due(e, now) {
			due = append(due, e)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].Start().Before(due[j].Start()) })

	w.mu.Lock()
	defer w.mu.Unlock()

	// started or removed events can no longer fire
	for id := range w.notified {
		if !upcoming[id] {
			delete(w.notified, id)
		}
	}

	var fired []models.Event
	for _, e := range due {
		if w.notified[e.ID] {
			continue
		}
		w.notified[e.ID] = true
		w.notifier.Notify(Message(e), calendar.SeverityInfo)
		w.metrics.AlarmFired()
		slog.Debug("Alarm fired", "id", e.ID, "title", e.Title)
		fired = append(fired, e)
	}
	return fired
}

// Run checks on the given cron schedule until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if w.Refresh != nil {
			w.Refresh(ctx)
		}
		w.Check(time.Now())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule alarm check %q: %w", spec, err)
	}

	slog.Info("Alarm watcher started", "schedule", spec)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("Alarm watcher stopped")
	return nil
}
