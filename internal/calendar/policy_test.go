package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mmynk/calendar/internal/models"
)

func TestNeedsScopePrompt(t *testing.T) {
	tests := []struct {
		name   string
		repeat models.RepeatSpec
		want   bool
	}{
		{"single event", models.RepeatSpec{Type: models.RepeatNone, Interval: 1}, false},
		{"series member", models.RepeatSpec{Type: models.RepeatWeekly, Interval: 1, GroupID: "repeat-1"}, true},
		{"recurring without group", models.RepeatSpec{Type: models.RepeatDaily, Interval: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := single("1", "회의", day(1))
			e.Repeat = tt.repeat
			if got := NeedsScopePrompt(e); got != tt.want {
				t.Errorf("NeedsScopePrompt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyEdit(t *testing.T) {
	ctx := context.Background()

	t.Run("series scope patches the whole series", func(t *testing.T) {
		gw := newFakeGateway(seriesFixture()...)
		c, _ := loaded(t, gw)

		original, _ := c.Event("s1")
		edited := original
		edited.Title = "X"
		edited.Date = day(30)

		res := c.ApplyEdit(ctx, original, edited, ScopeSeries)
		if res.Op != OpUpdateSeries || !res.OK() {
			t.Fatalf("expected committed series update, got %+v", res)
		}
		for _, id := range []string{"s1", "s2", "s3"} {
			e, _ := c.Event(id)
			if e.Title != "X" {
				t.Errorf("%s not patched", id)
			}
			if e.Date == day(30) {
				t.Errorf("%s date was patched", id)
			}
		}
	})

	t.Run("single scope detaches the occurrence", func(t *testing.T) {
		gw := newFakeGateway(seriesFixture()...)
		c, _ := loaded(t, gw)

		original, _ := c.Event("s2")
		edited := original
		edited.Title = "한 번만"

		res := c.ApplyEdit(ctx, original, edited, ScopeSingle)
		if res.Op != OpUpdate || !res.OK() {
			t.Fatalf("expected committed single update, got %+v", res)
		}
		got, _ := c.Event("s2")
		if got.Repeat.InSeries() {
			t.Errorf("edited occurrence still in series: %+v", got.Repeat)
		}
		if s1, _ := c.Event("s1"); !s1.Repeat.InSeries() || s1.Title == "한 번만" {
			t.Errorf("sibling affected: %+v", s1)
		}
	})

	t.Run("series scope without patchable changes fails", func(t *testing.T) {
		gw := newFakeGateway(seriesFixture()...)
		c, rec := loaded(t, gw)

		original, _ := c.Event("s2")
		edited := original
		edited.Date = day(30)

		res := c.ApplyEdit(ctx, original, edited, ScopeSeries)
		if !errors.Is(res.Err, ErrSeriesUpdate) || !errors.Is(res.Err, ErrEmptyPatch) {
			t.Fatalf("expected failed series update, got %+v", res)
		}
		if gw.callCount("UpdateSeries") != 0 {
			t.Error("empty patch reached the gateway")
		}
		if rec.last(t).message != "일정 수정 실패" {
			t.Errorf("unexpected notification %+v", rec.last(t))
		}
		if got, _ := c.Event("s2"); got.Date != original.Date {
			t.Errorf("member changed: %+v", got)
		}
	})

	t.Run("recurring event without group goes through single path", func(t *testing.T) {
		orphan := single("o1", "repeat.id 없는 반복 일정", day(1))
		orphan.Repeat = models.RepeatSpec{Type: models.RepeatDaily, Interval: 1}
		gw := newFakeGateway(orphan)
		c, _ := loaded(t, gw)

		edited := orphan
		edited.Title = "수정"
		res := c.ApplyEdit(ctx, orphan, edited, ScopeSeries)
		if res.Op != OpUpdate || !res.OK() {
			t.Fatalf("expected single update, got %+v", res)
		}
		if gw.callCount("UpdateSeries") != 0 {
			t.Error("series update attempted without a group id")
		}
		if got, _ := c.Event("o1"); got.Repeat.Type != models.RepeatDaily {
			t.Errorf("cadence changed: %+v", got.Repeat)
		}
	})
}

func TestApplyDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("series scope", func(t *testing.T) {
		c, _ := loaded(t, newFakeGateway(seriesFixture()...))
		e, _ := c.Event("s1")
		if res := c.ApplyDelete(ctx, e, ScopeSeries); res.Op != OpDeleteSeries || !res.OK() {
			t.Fatalf("expected series delete, got %+v", res)
		}
		if len(c.Events()) != 1 {
			t.Errorf("expected 1 event left, got %d", len(c.Events()))
		}
	})

	t.Run("single scope", func(t *testing.T) {
		c, _ := loaded(t, newFakeGateway(seriesFixture()...))
		e, _ := c.Event("s1")
		if res := c.ApplyDelete(ctx, e, ScopeSingle); res.Op != OpDelete || !res.OK() {
			t.Fatalf("expected single delete, got %+v", res)
		}
		if len(c.Events()) != 3 {
			t.Errorf("expected 3 events left, got %d", len(c.Events()))
		}
	})

	t.Run("series scope without group deletes one", func(t *testing.T) {
		orphan := single("o1", "반복", day(1))
		orphan.Repeat = models.RepeatSpec{Type: models.RepeatDaily, Interval: 1}
		gw := newFakeGateway(orphan)
		c, _ := loaded(t, gw)
		if res := c.ApplyDelete(ctx, orphan, ScopeSeries); res.Op != OpDelete || !res.OK() {
			t.Fatalf("expected single delete, got %+v", res)
		}
		if gw.callCount("DeleteSeries") != 0 {
			t.Error("series delete attempted without a group id")
		}
	})
}

func TestParseScope(t *testing.T) {
	if s, err := ParseScope("series"); err != nil || s != ScopeSeries {
		t.Errorf("ParseScope(series) = %v, %v", s, err)
	}
	if s, err := ParseScope(""); err != nil || s != ScopeSingle {
		t.Errorf("ParseScope(\"\") = %v, %v", s, err)
	}
	if _, err := ParseScope("all"); err == nil {
		t.Error("expected error for unknown scope")
	}
}

func TestPlanSeries(t *testing.T) {
	template := single("tpl", "월간 보고", civil.Date{Year: 2025, Month: time.January, Day: 31})
	template.Repeat = models.RepeatSpec{Type: models.RepeatMonthly, Interval: 1}

	got := PlanSeries(template, civil.Date{Year: 2025, Month: time.June, Day: 30})
	want := []civil.Date{
		{Year: 2025, Month: time.January, Day: 31},
		{Year: 2025, Month: time.March, Day: 31},
		{Year: 2025, Month: time.May, Day: 31},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d instances, got %d", len(want), len(got))
	}
	for i, e := range got {
		if e.Date != want[i] {
			t.Errorf("instance %d: got %v, want %v", i, e.Date, want[i])
		}
		if e.ID != "" || e.Repeat.GroupID != "" {
			t.Errorf("instance %d kept identity: %q %q", i, e.ID, e.Repeat.GroupID)
		}
		if e.Repeat.Type != models.RepeatMonthly {
			t.Errorf("instance %d lost its cadence", i)
		}
	}
}

func TestOperationOnCancelledContext(t *testing.T) {
	gw := newFakeGateway(seriesFixture()...)
	gw.block = make(chan struct{})
	c, _ := loaded(t, gw)

	e, _ := c.Event("other")
	go c.SaveEvent(context.Background(), e)
	for {
		if _, ok := c.Pending(EventTarget("other")); ok {
			break
		}
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := c.SaveEvent(ctx, e)
	if !errors.Is(res.Err, context.Canceled) || !errors.Is(res.Err, ErrSingleSave) {
		t.Errorf("expected cancelled single save, got %v", res.Err)
	}
	close(gw.block)
}
