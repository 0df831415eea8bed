// Package storagetest holds a behavioural test suite shared by every storage.Store backend.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/civil"

	"github.com/mmynk/calendar/internal/models"
	"github.com/mmynk/calendar/internal/storage"
)

// Event returns a valid single event on the given date.
func Event(title string, date civil.Date) models.Event {
	return models.Event{
		Title:            title,
		Date:             date,
		StartTime:        "09:00",
		EndTime:          "10:00",
		Description:      "설명",
		Location:         "회의실 A",
		Category:         models.CategoryWork,
		Repeat:           models.RepeatSpec{Type: models.RepeatNone, Interval: 1},
		NotificationTime: 10,
	}
}

// Run exercises store. The store must start empty.
func Run(t *testing.T, store storage.Store) {
	ctx := context.Background()

	t.Run("CreateEvent generates ID and round-trips fields", func(t *testing.T) {
		end := civil.Date{Year: 2025, Month: 3, Day: 1}
		event := Event("팀 회의", civil.Date{Year: 2025, Month: 1, Day: 15})
		event.Repeat = models.RepeatSpec{Type: models.RepeatWeekly, Interval: 2, EndDate: &end, GroupID: "g-1"}

		if err := store.CreateEvent(ctx, &event); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		if event.ID == "" {
			t.Fatal("Expected event ID to be generated")
		}

		got, err := store.GetEvent(ctx, event.ID)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if got.Title != event.Title || got.Date != event.Date || got.StartTime != "09:00" || got.EndTime != "10:00" {
			t.Errorf("GetEvent mismatch: got %+v, want %+v", got, event)
		}
		if got.Category != models.CategoryWork || got.NotificationTime != 10 || got.Location != "회의실 A" {
			t.Errorf("GetEvent lost fields: %+v", got)
		}
		if !got.Repeat.SameSchedule(event.Repeat) || got.Repeat.GroupID != "g-1" {
			t.Errorf("repeat mismatch: got %+v, want %+v", got.Repeat, event.Repeat)
		}

		if err := store.DeleteEvent(ctx, event.ID); err != nil {
			t.Fatalf("DeleteEvent failed: %v", err)
		}
	})

	t.Run("GetEvent returns ErrNotFound for unknown ID", func(t *testing.T) {
		_, err := store.GetEvent(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateEvent replaces fields and clears group", func(t *testing.T) {
		event := Event("원래 회의", civil.Date{Year: 2025, Month: 1, Day: 8})
		event.Repeat = models.RepeatSpec{Type: models.RepeatDaily, Interval: 1, GroupID: "g-2"}
		if err := store.CreateEvent(ctx, &event); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}

		event.Title = "수정된 회의"
		event.Detach()
		if err := store.UpdateEvent(ctx, &event); err != nil {
			t.Fatalf("UpdateEvent failed: %v", err)
		}

		got, err := store.GetEvent(ctx, event.ID)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if got.Title != "수정된 회의" {
			t.Errorf("title not updated: %q", got.Title)
		}
		if got.Repeat.Type != models.RepeatNone || got.Repeat.GroupID != "" {
			t.Errorf("repeat not detached: %+v", got.Repeat)
		}

		if err := store.DeleteEvent(ctx, event.ID); err != nil {
			t.Fatalf("DeleteEvent failed: %v", err)
		}
	})

	t.Run("UpdateEvent and DeleteEvent report unknown IDs", func(t *testing.T) {
		ghost := Event("없는 일정", civil.Date{Year: 2025, Month: 1, Day: 1})
		ghost.ID = "ghost"
		if err := store.UpdateEvent(ctx, &ghost); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("UpdateEvent: expected ErrNotFound, got %v", err)
		}
		if err := store.DeleteEvent(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("DeleteEvent: expected ErrNotFound, got %v", err)
		}
	})

	t.Run("series lifecycle", func(t *testing.T) {
		var series []models.Event
		for day := 1; day <= 3; day++ {
			e := Event("반복 회의", civil.Date{Year: 2025, Month: 2, Day: day})
			e.Repeat = models.RepeatSpec{Type: models.RepeatDaily, Interval: 1, GroupID: "g-series"}
			series = append(series, e)
		}
		other := Event("다른 일정", civil.Date{Year: 2025, Month: 2, Day: 2})
		if err := store.CreateEvent(ctx, &other); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}

		if err := store.CreateEvents(ctx, series); err != nil {
			t.Fatalf("CreateEvents failed: %v", err)
		}
		for i, e := range series {
			if e.ID == "" {
				t.Errorf("series member %d has no ID", i)
			}
		}

		members, err := store.ListSeries(ctx, "g-series")
		if err != nil {
			t.Fatalf("ListSeries failed: %v", err)
		}
		if len(members) != 3 {
			t.Fatalf("expected 3 members, got %d", len(members))
		}
		if members[0].Date.Day != 1 || members[2].Date.Day != 3 {
			t.Errorf("members not ordered by date: %v, %v", members[0].Date, members[2].Date)
		}

		for i := range members {
			members[i].Title = "X"
		}
		if err := store.UpdateEvents(ctx, members); err != nil {
			t.Fatalf("UpdateEvents failed: %v", err)
		}

		all, err := store.ListEvents(ctx)
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(all) != 4 {
			t.Fatalf("expected 4 events, got %d", len(all))
		}
		for _, e := range all {
			if e.Repeat.GroupID == "g-series" && e.Title != "X" {
				t.Errorf("series member %s not updated", e.ID)
			}
			if e.ID == other.ID && e.Title != "다른 일정" {
				t.Errorf("unrelated event changed: %q", e.Title)
			}
		}

		n, err := store.DeleteSeries(ctx, "g-series")
		if err != nil {
			t.Fatalf("DeleteSeries failed: %v", err)
		}
		if n != 3 {
			t.Errorf("DeleteSeries removed %d, want 3", n)
		}
		left, err := store.ListEvents(ctx)
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(left) != 1 || left[0].ID != other.ID {
			t.Errorf("expected only the unrelated event to remain, got %+v", left)
		}

		if err := store.DeleteEvent(ctx, other.ID); err != nil {
			t.Fatalf("DeleteEvent failed: %v", err)
		}
	})

	t.Run("CreateEvents is atomic", func(t *testing.T) {
		dup := Event("중복", civil.Date{Year: 2025, Month: 4, Day: 1})
		dup.ID = "dup"
		if err := store.CreateEvent(ctx, &dup); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}

		batch := []models.Event{
			Event("첫째", civil.Date{Year: 2025, Month: 4, Day: 2}),
			dup,
		}
		if err := store.CreateEvents(ctx, batch); err == nil {
			t.Fatal("expected duplicate ID to fail the batch")
		}

		all, err := store.ListEvents(ctx)
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("partial batch persisted: %d events", len(all))
		}

		if err := store.DeleteEvent(ctx, "dup"); err != nil {
			t.Fatalf("DeleteEvent failed: %v", err)
		}
	})

	t.Run("UpdateEvents is atomic", func(t *testing.T) {
		a := Event("A", civil.Date{Year: 2025, Month: 5, Day: 1})
		if err := store.CreateEvent(ctx, &a); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		changed := a
		changed.Title = "A2"
		ghost := Event("ghost", a.Date)
		ghost.ID = "ghost"

		err := store.UpdateEvents(ctx, []models.Event{changed, ghost})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		got, err := store.GetEvent(ctx, a.ID)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if got.Title != "A" {
			t.Errorf("rolled back update leaked: %q", got.Title)
		}

		if err := store.DeleteEvent(ctx, a.ID); err != nil {
			t.Fatalf("DeleteEvent failed: %v", err)
		}
	})

	t.Run("unknown series is empty", func(t *testing.T) {
		members, err := store.ListSeries(ctx, "nope")
		if err != nil {
			t.Fatalf("ListSeries failed: %v", err)
		}
		if len(members) != 0 {
			t.Errorf("expected no members, got %d", len(members))
		}
		n, err := store.DeleteSeries(ctx, "nope")
		if err != nil || n != 0 {
			t.Errorf("DeleteSeries(nope) = %d, %v", n, err)
		}
	})
}
