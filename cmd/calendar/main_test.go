package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/mmynk/calendar/internal/config"
	"github.com/mmynk/calendar/internal/models"
	"github.com/mmynk/calendar/internal/server"
	"github.com/mmynk/calendar/internal/service"
	"github.com/mmynk/calendar/internal/storage/sqlite"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestApp runs the CLI against an API server on a temp SQLite database.
func setupTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}
	ts := httptest.NewServer(server.New(service.NewEventService(store, nil), server.Options{}))

	cfg := config.DefaultConfig()
	cfg.Gateway.URL = ts.URL + "/api"
	cfg.HorizonDays = 60

	var out bytes.Buffer
	a, err := newApp(cfg, &out)
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	t.Cleanup(func() {
		a.coord.Close()
		ts.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})
	return a, &out
}

func TestEventFlags(t *testing.T) {
	t.Run("builds an event", func(t *testing.T) {
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		var f eventFlags
		f.register(fs)
		f.registerRepeat(fs)
		err := fs.Parse([]string{"-title", "주간 회의", "-date", "2025-10-01", "-category", "personal", "-repeat", "weekly", "-interval", "2", "-until", "2025-12-31"})
		if err != nil {
			t.Fatal(err)
		}
		e, err := f.event()
		if err != nil {
			t.Fatalf("event() failed: %v", err)
		}
		if e.Category != models.CategoryPersonal {
			t.Errorf("category = %q", e.Category)
		}
		if e.Repeat.Type != models.RepeatWeekly || e.Repeat.Interval != 2 || e.Repeat.EndDate == nil {
			t.Errorf("repeat = %+v", e.Repeat)
		}
		if err := e.Validate(); err != nil {
			t.Errorf("built event is invalid: %v", err)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
		}{
			{"missing date", []string{"-title", "x"}},
			{"bad date", []string{"-date", "2025/10/01"}},
			{"bad category", []string{"-date", "2025-10-01", "-category", "hobby"}},
			{"bad repeat", []string{"-date", "2025-10-01", "-repeat", "hourly"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				fs := flag.NewFlagSet("add", flag.ContinueOnError)
				var f eventFlags
				f.register(fs)
				f.registerRepeat(fs)
				if err := fs.Parse(tt.args); err != nil {
					t.Fatal(err)
				}
				if _, err := f.event(); err == nil {
					t.Error("expected error")
				}
			})
		}
	})

	t.Run("apply only touches set flags", func(t *testing.T) {
		fs := flag.NewFlagSet("edit", flag.ContinueOnError)
		var f eventFlags
		f.register(fs)
		if err := fs.Parse([]string{"-title", "새 제목", "-notify", "0"}); err != nil {
			t.Fatal(err)
		}
		e := models.Event{Title: "old", StartTime: "14:00", EndTime: "15:00", NotificationTime: 10}
		if err := f.apply(fs, &e); err != nil {
			t.Fatal(err)
		}
		if e.Title != "새 제목" || e.NotificationTime != 0 {
			t.Errorf("set flags not applied: %+v", e)
		}
		if e.StartTime != "14:00" {
			t.Errorf("unset -start overwrote StartTime with %q", e.StartTime)
		}
	})
}

func TestDescribeRepeat(t *testing.T) {
	end := civil.Date{Year: 2025, Month: 10, Day: 31}
	tests := []struct {
		spec models.RepeatSpec
		want string
	}{
		{models.RepeatSpec{Type: models.RepeatNone, Interval: 1}, "-"},
		{models.RepeatSpec{Type: models.RepeatDaily, Interval: 1}, "daily"},
		{models.RepeatSpec{Type: models.RepeatWeekly, Interval: 2, EndDate: &end}, "weekly/2 until 2025-10-31"},
		{models.RepeatSpec{Type: models.RepeatMonthly, Interval: 1, GroupID: "a1b2c3d4-e5f6"}, "monthly [series a1b2c3d4]"},
	}
	for _, tt := range tests {
		if got := describeRepeat(tt.spec); got != tt.want {
			t.Errorf("describeRepeat(%+v) = %q, want %q", tt.spec, got, tt.want)
		}
	}
}

func TestAddWarnsOnOverlap(t *testing.T) {
	a, out := setupTestApp(t)
	ctx := context.Background()

	if err := runAdd(ctx, a, []string{"-title", "기존 회의", "-date", "2025-10-15"}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !strings.Contains(out.String(), "[success] 일정이 추가되었습니다.") {
		t.Errorf("missing success notification:\n%s", out.String())
	}

	out.Reset()
	err := runAdd(ctx, a, []string{"-title", "새 회의", "-date", "2025-10-15", "-start", "09:30", "-end", "10:30"})
	if !errors.Is(err, errOverlap) {
		t.Fatalf("expected errOverlap, got %v", err)
	}
	if !strings.Contains(out.String(), "일정 겹침 경고") || !strings.Contains(out.String(), "기존 회의 (2025-10-15 09:00-10:00)") {
		t.Errorf("unexpected warning:\n%s", out.String())
	}
	if len(a.coord.Events()) != 1 {
		t.Errorf("overlapping event was saved")
	}

	if err := runAdd(ctx, a, []string{"-title", "새 회의", "-date", "2025-10-15", "-start", "09:30", "-end", "10:30", "-force"}); err != nil {
		t.Fatalf("forced add failed: %v", err)
	}
	if len(a.coord.Events()) != 2 {
		t.Errorf("expected 2 events, got %d", len(a.coord.Events()))
	}
}

func TestSeriesCommands(t *testing.T) {
	a, out := setupTestApp(t)
	ctx := context.Background()

	err := runAdd(ctx, a, []string{"-title", "주간 회의", "-date", "2025-10-01", "-repeat", "weekly", "-until", "2025-10-29"})
	if err != nil {
		t.Fatalf("add series failed: %v", err)
	}
	events := a.coord.Events()
	if len(events) != 5 {
		t.Fatalf("expected 5 members, got %d", len(events))
	}
	target := events[2].ID

	if err := runEdit(ctx, a, []string{"-id", target, "-title", "X"}); !errors.Is(err, errNeedsScope) {
		t.Fatalf("expected errNeedsScope, got %v", err)
	}

	if err := runEdit(ctx, a, []string{"-id", target, "-title", "X", "-scope", "series"}); err != nil {
		t.Fatalf("series edit failed: %v", err)
	}
	for _, e := range a.coord.Events() {
		if e.Title != "X" {
			t.Errorf("member %s not renamed", e.ID)
		}
	}

	if err := runEdit(ctx, a, []string{"-id", target, "-title", "특별 회의", "-scope", "single"}); err != nil {
		t.Fatalf("single edit failed: %v", err)
	}
	detached, _ := a.coord.Event(target)
	if detached.Repeat.InSeries() {
		t.Errorf("single edit left the event in the series: %+v", detached.Repeat)
	}

	if err := runDelete(ctx, a, []string{"-id", events[0].ID, "-scope", "series"}); err != nil {
		t.Fatalf("series delete failed: %v", err)
	}
	remaining := a.coord.Events()
	if len(remaining) != 1 || remaining[0].ID != target {
		t.Fatalf("expected only the detached event, got %+v", remaining)
	}

	out.Reset()
	if err := runList(ctx, a, []string{"-q", "특별"}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out.String(), "특별 회의") || !strings.Contains(out.String(), "1 events") {
		t.Errorf("unexpected list output:\n%s", out.String())
	}
}

func TestAddSeriesUntilBeyondHorizon(t *testing.T) {
	a, _ := setupTestApp(t)
	ctx := context.Background()

	t.Run("until date past the horizon saves every occurrence", func(t *testing.T) {
		err := runAdd(ctx, a, []string{"-title", "아침 운동", "-date", "2025-01-01", "-repeat", "daily", "-until", "2025-06-30"})
		if err != nil {
			t.Fatalf("add series failed: %v", err)
		}
		events := a.coord.Events()
		if len(events) != 181 {
			t.Fatalf("expected 181 members, got %d", len(events))
		}
		last := events[0].Date
		for _, e := range events {
			if e.Date.After(last) {
				last = e.Date
			}
		}
		if last != (civil.Date{Year: 2025, Month: 6, Day: 30}) {
			t.Errorf("last occurrence = %s, want 2025-06-30", last)
		}
	})

	t.Run("open-ended series stops at the horizon", func(t *testing.T) {
		before := len(a.coord.Events())
		if err := runAdd(ctx, a, []string{"-title", "저녁 산책", "-date", "2026-01-01", "-repeat", "daily"}); err != nil {
			t.Fatalf("add series failed: %v", err)
		}
		if added := len(a.coord.Events()) - before; added != 61 {
			t.Errorf("expected 61 members within 60 days, got %d", added)
		}
	})
}

func TestPreview(t *testing.T) {
	a, out := setupTestApp(t)
	ctx := context.Background()

	err := runPreview(ctx, a, []string{"-date", "2025-01-31", "-repeat", "monthly", "-to", "2025-12-31"})
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if !strings.Contains(out.String(), "7 occurrences") {
		t.Errorf("expected 7 monthly occurrences on the 31st:\n%s", out.String())
	}
	if strings.Contains(out.String(), "2025-02-") {
		t.Errorf("February must be skipped:\n%s", out.String())
	}

	out.Reset()
	if err := runPreview(ctx, a, []string{"-date", "2025-01-31", "-repeat", "monthly", "-ics"}); err != nil {
		t.Fatalf("preview -ics failed: %v", err)
	}
	if !strings.Contains(out.String(), "RRULE:FREQ=MONTHLY;INTERVAL=1") {
		t.Errorf("missing RRULE:\n%s", out.String())
	}
}
