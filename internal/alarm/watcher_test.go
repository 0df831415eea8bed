package alarm

import (
	"context"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/calendar/internal/calendar"
	"github.com/mmynk/calendar/internal/metrics"
	"github.com/mmynk/calendar/internal/models"
	"github.com/mmynk/calendar/internal/storage/storagetest"
)

func meeting(id string) models.Event {
	e := storagetest.Event("기존 회의", civil.Date{Year: 2025, Month: 10, Day: 15})
	e.ID = id
	return e
}

func TestMessage(t *testing.T) {
	if got, want := Message(meeting("1")), "10분 후 기존 회의 일정이 시작됩니다."; got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
}

func TestDue(t *testing.T) {
	e := meeting("1")
	start := e.Start()

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before alarm", start.Add(-11 * time.Minute), false},
		{"at alarm", start.Add(-10 * time.Minute), true},
		{"between alarm and start", start.Add(-time.Minute), true},
		{"at start", start, false},
		{"after start", start.Add(time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Due(e, tt.now); got != tt.want {
				t.Errorf("Due() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckNotifiesOnce(t *testing.T) {
	later := meeting("2")
	later.StartTime, later.EndTime = "09:05", "10:00"
	unsaved := meeting("")
	events := []models.Event{later, meeting("1"), unsaved}

	var got []string
	notifier := calendar.NotifierFunc(func(message string, severity calendar.Severity) {
		if severity != calendar.SeverityInfo {
			t.Errorf("severity = %v, want info", severity)
		}
		got = append(got, message)
	})
	m := metrics.New()
	w := NewWatcher(func() []models.Event { return events }, notifier, m)

	first := meeting("1")
	now := first.Start().Add(-5 * time.Minute)
	fired := w.Check(now)
	if len(fired) != 2 || fired[0].ID != "1" || fired[1].ID != "2" {
		t.Fatalf("fired = %+v, want events 1 then 2", fired)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %v", got)
	}

	if again := w.Check(now.Add(time.Minute)); len(again) != 0 {
		t.Errorf("alarms fired twice: %+v", again)
	}
	if n := testutil.ToFloat64(m.AlarmsFired); n != 2 {
		t.Errorf("alarms metric = %v, want 2", n)
	}
}

func TestCheckForgetsFinishedAlarms(t *testing.T) {
	first := meeting("1")
	second := meeting("2")
	second.StartTime, second.EndTime = "09:05", "10:00"
	events := []models.Event{first, second}

	var got []string
	notifier := calendar.NotifierFunc(func(message string, severity calendar.Severity) {
		got = append(got, message)
	})
	w := NewWatcher(func() []models.Event { return events }, notifier, nil)

	now := first.Start().Add(-5 * time.Minute)
	if fired := w.Check(now); len(fired) != 2 {
		t.Fatalf("expected 2 alarms, got %+v", fired)
	}

	t.Run("removed event is dropped", func(t *testing.T) {
		events = []models.Event{first}
		if fired := w.Check(now.Add(time.Minute)); len(fired) != 0 {
			t.Errorf("alarms fired twice: %+v", fired)
		}
		if len(w.notified) != 1 || !w.notified["1"] {
			t.Errorf("notified = %v, want only event 1", w.notified)
		}
	})

	t.Run("started event is dropped", func(t *testing.T) {
		w.Check(first.Start().Add(time.Minute))
		if len(w.notified) != 0 {
			t.Errorf("notified = %v, want empty", w.notified)
		}
	})

	t.Run("rescheduled event fires again", func(t *testing.T) {
		moved := first
		moved.Date = first.Date.AddDays(1)
		events = []models.Event{moved}
		got = nil
		fired := w.Check(moved.Start().Add(-5 * time.Minute))
		if len(fired) != 1 || fired[0].ID != "1" || len(got) != 1 {
			t.Errorf("expected one alarm for the moved event, got %+v", fired)
		}
	})
}

func TestRun(t *testing.T) {
	w := NewWatcher(func() []models.Event { return nil }, calendar.LogNotifier{}, nil)

	t.Run("invalid schedule", func(t *testing.T) {
		if err := w.Run(context.Background(), "every minute"); err == nil {
			t.Error("expected schedule error")
		}
	})

	t.Run("stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := w.Run(ctx, "* * * * *"); err != nil {
			t.Errorf("Run returned %v", err)
		}
	})
}
