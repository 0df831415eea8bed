package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/mmynk/calendar/internal/auth"
	"github.com/mmynk/calendar/internal/calendar"
	"github.com/mmynk/calendar/internal/models"
	"github.com/mmynk/calendar/internal/server"
	"github.com/mmynk/calendar/internal/service"
	"github.com/mmynk/calendar/internal/storage/sqlite"
	"github.com/mmynk/calendar/internal/storage/storagetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type notification struct {
	message  string
	severity calendar.Severity
}

type recorder struct {
	mu  sync.Mutex
	got []notification
}

func (r *recorder) Notify(message string, severity calendar.Severity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, notification{message, severity})
}

func (r *recorder) last() notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return notification{}
	}
	return r.got[len(r.got)-1]
}

// setupTestServer starts the events API on a temp SQLite database and returns
// a coordinator talking to it over HTTP.
func setupTestServer(t *testing.T, opts server.Options, clientOpts ...Option) (*calendar.Coordinator, *recorder, *httptest.Server) {
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

	ts := httptest.NewServer(server.New(service.NewEventService(store, nil), opts))
	t.Cleanup(func() {
		ts.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	client, err := New(ts.URL+"/api", clientOpts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	rec := &recorder{}
	coord := calendar.NewCoordinator(client, rec)
	t.Cleanup(coord.Close)
	return coord, rec, ts
}

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func weeklyTemplate() models.Event {
	e := storagetest.Event("주간 회의", date(2025, 10, 1))
	end := date(2025, 10, 29)
	e.Repeat = models.RepeatSpec{Type: models.RepeatWeekly, Interval: 1, EndDate: &end}
	return e
}

func seedSeries(t *testing.T, coord *calendar.Coordinator) []models.Event {
	t.Helper()
	tpl := weeklyTemplate()
	res := coord.SaveRecurringEvents(context.Background(), calendar.PlanSeries(tpl, *tpl.Repeat.EndDate))
	if !res.OK() {
		t.Fatalf("SaveRecurringEvents failed: %v", res.Err)
	}
	return res.Events
}

func TestSingleEventLifecycle(t *testing.T) {
	coord, rec, _ := setupTestServer(t, server.Options{})
	ctx := context.Background()

	res := coord.SaveEvent(ctx, storagetest.Event("새 회의", date(2025, 10, 15)))
	if !res.OK() {
		t.Fatalf("create failed: %v", res.Err)
	}
	if got := rec.last(); got.message != "일정이 추가되었습니다." || got.severity != calendar.SeveritySuccess {
		t.Errorf("unexpected notification %+v", got)
	}
	created := res.Events[0]
	if created.ID == "" {
		t.Fatal("expected server-assigned id")
	}

	created.Title = "수정된 회의"
	if res := coord.SaveEvent(ctx, created); !res.OK() {
		t.Fatalf("update failed: %v", res.Err)
	}
	if got := rec.last().message; got != "일정이 수정되었습니다." {
		t.Errorf("update message = %q", got)
	}

	if res := coord.Load(ctx); !res.OK() {
		t.Fatalf("load failed: %v", res.Err)
	}
	if e, ok := coord.Event(created.ID); !ok || e.Title != "수정된 회의" {
		t.Errorf("reloaded event = %+v, %v", e, ok)
	}

	if res := coord.DeleteEvent(ctx, created.ID); !res.OK() {
		t.Fatalf("delete failed: %v", res.Err)
	}
	if len(coord.Events()) != 0 {
		t.Errorf("expected empty collection, got %d", len(coord.Events()))
	}

	t.Run("deleting again reports the delete failure", func(t *testing.T) {
		res := coord.DeleteEvent(ctx, created.ID)
		if !errors.Is(res.Err, calendar.ErrSingleDelete) {
			t.Fatalf("expected ErrSingleDelete, got %v", res.Err)
		}
		var se *StatusError
		if !errors.As(res.Err, &se) || se.Code != http.StatusNotFound {
			t.Errorf("expected 404 StatusError, got %v", res.Err)
		}
		if got := rec.last(); got.message != "일정 삭제 실패" || got.severity != calendar.SeverityError {
			t.Errorf("unexpected notification %+v", got)
		}
	})
}

func TestSeriesOverHTTP(t *testing.T) {
	coord, rec, _ := setupTestServer(t, server.Options{})
	ctx := context.Background()

	members := seedSeries(t, coord)
	if len(members) != 5 {
		t.Fatalf("expected 5 weekly members, got %d", len(members))
	}
	if got := rec.last().message; got != "반복 일정이 추가되었습니다." {
		t.Errorf("create message = %q", got)
	}
	groupID := members[0].Repeat.GroupID

	t.Run("series edit patches every member", func(t *testing.T) {
		edited := members[2].Clone()
		edited.Title = "X"
		res := coord.ApplyEdit(ctx, members[2], edited, calendar.ScopeSeries)
		if !res.OK() {
			t.Fatalf("series edit failed: %v", res.Err)
		}
		for _, e := range coord.Events() {
			if e.Title != "X" {
				t.Errorf("member %s on %v not patched", e.ID, e.Date)
			}
		}
		if got := rec.last().message; got != "반복 일정이 수정되었습니다." {
			t.Errorf("update message = %q", got)
		}
	})

	t.Run("single edit detaches the member", func(t *testing.T) {
		original, _ := coord.Event(members[1].ID)
		edited := original.Clone()
		edited.Title = "특별 회의"
		res := coord.ApplyEdit(ctx, original, edited, calendar.ScopeSingle)
		if !res.OK() {
			t.Fatalf("single edit failed: %v", res.Err)
		}
		got, _ := coord.Event(members[1].ID)
		if got.Repeat.Type != models.RepeatNone || got.Repeat.GroupID != "" {
			t.Errorf("edited member still recurs: %+v", got.Repeat)
		}
		if calendar.NeedsScopePrompt(got) {
			t.Error("detached event must not prompt for a scope")
		}
	})

	t.Run("series delete leaves the detached event", func(t *testing.T) {
		res := coord.DeleteRecurringSeries(ctx, groupID)
		if !res.OK() {
			t.Fatalf("series delete failed: %v", res.Err)
		}
		events := coord.Events()
		if len(events) != 1 || events[0].ID != members[1].ID {
			t.Fatalf("expected only the detached event, got %+v", events)
		}

		if res := coord.Load(ctx); !res.OK() || len(coord.Events()) != 1 {
			t.Errorf("server state diverged after reload: %v, %d events", res.Err, len(coord.Events()))
		}
	})

	t.Run("unknown series", func(t *testing.T) {
		title := "수정"
		res := coord.UpdateRecurringSeries(ctx, "non-existent-id", models.EventPatch{Title: &title})
		if !errors.Is(res.Err, calendar.ErrSeriesUpdate) {
			t.Errorf("expected ErrSeriesUpdate, got %v", res.Err)
		}
		res = coord.DeleteRecurringSeries(ctx, "non-existent-id")
		if !errors.Is(res.Err, calendar.ErrSeriesDelete) {
			t.Errorf("expected ErrSeriesDelete, got %v", res.Err)
		}
		if got := rec.last().message; got != "반복 일정 삭제 실패" {
			t.Errorf("delete failure message = %q", got)
		}
	})
}

func TestLoadFailureEmptiesCollection(t *testing.T) {
	coord, rec, ts := setupTestServer(t, server.Options{})
	ctx := context.Background()

	seedSeries(t, coord)
	ts.Close()

	res := coord.Load(ctx)
	if !errors.Is(res.Err, calendar.ErrLoad) {
		t.Fatalf("expected ErrLoad, got %v", res.Err)
	}
	if len(coord.Events()) != 0 {
		t.Errorf("expected empty collection after failed load, got %d", len(coord.Events()))
	}
	if got := rec.last().message; got != "이벤트 로딩 실패" {
		t.Errorf("load failure message = %q", got)
	}
}

func TestAuthenticatedClient(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token := func() (string, error) { return jwtManager.Generate("cli") }

	t.Run("with token", func(t *testing.T) {
		coord, _, _ := setupTestServer(t, server.Options{JWT: jwtManager}, WithToken(token))
		if res := coord.Load(context.Background()); !res.OK() {
			t.Fatalf("load failed: %v", res.Err)
		}
	})

	t.Run("without token", func(t *testing.T) {
		coord, _, _ := setupTestServer(t, server.Options{JWT: jwtManager})
		res := coord.Load(context.Background())
		var se *StatusError
		if !errors.As(res.Err, &se) || se.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 StatusError, got %v", res.Err)
		}
	})

	t.Run("token source error", func(t *testing.T) {
		boom := errors.New("no credentials")
		coord, _, _ := setupTestServer(t, server.Options{}, WithToken(func() (string, error) { return "", boom }))
		if res := coord.Load(context.Background()); !errors.Is(res.Err, boom) {
			t.Errorf("expected token error, got %v", res.Err)
		}
	})
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		name string
		err  StatusError
		want string
	}{
		{"with body", StatusError{Method: "GET", Path: "events", Code: 500, Body: "boom"}, "GET events: 500 boom"},
		{"without body", StatusError{Method: "DELETE", Path: "events/1", Code: 404}, "DELETE events/1: 404 Not Found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMalformedResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"events": "nope"}`))
	}))
	defer ts.Close()

	client, err := New(ts.URL)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := client.ListEvents(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}
