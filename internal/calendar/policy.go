package calendar

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/mmynk/calendar/internal/models"
	"github.com/mmynk/calendar/internal/recurrence"
)

// Scope selects whether an edit or delete targets one occurrence or its whole series.
type Scope int

const (
	ScopeSingle Scope = iota
	ScopeSeries
)

// ParseScope maps "single" or "series" to a Scope.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "single":
		return ScopeSingle, nil
	case "series":
		return ScopeSeries, nil
	default:
		return ScopeSingle, fmt.Errorf("unknown scope %q", s)
	}
}

func (s Scope) String() string {
	if s == ScopeSeries {
		return "series"
	}
	return "single"
}

// NeedsScopePrompt reports whether the caller must ask the user for a scope
// before editing or deleting e.
func NeedsScopePrompt(e models.Event) bool {
	return e.Repeat.InSeries()
}

// ApplyEdit saves edited, the user's modified copy of original.
//
// With ScopeSeries on a series member, the changed fields are patched onto the
// whole series. Otherwise the edit goes through SaveEvent; a series member edited
// on its own leaves the series.
func (c *Coordinator) ApplyEdit(ctx context.Context, original, edited models.Event, scope Scope) Result {
	if !NeedsScopePrompt(original) {
		return c.SaveEvent(ctx, edited)
	}
	if scope == ScopeSeries {
		return c.UpdateRecurringSeries(ctx, original.Repeat.GroupID, models.Diff(original, edited))
	}

	edited = edited.Clone()
	edited.ID = original.ID
	edited.Detach()
	return c.SaveEvent(ctx, edited)
}

// ApplyDelete removes e, or its whole series with ScopeSeries.
func (c *Coordinator) ApplyDelete(ctx context.Context, e models.Event, scope Scope) Result {
	if scope == ScopeSeries && NeedsScopePrompt(e) {
		return c.DeleteRecurringSeries(ctx, e.Repeat.GroupID)
	}
	return c.DeleteEvent(ctx, e.ID)
}

// PlanSeries expands template from its own date up to horizonEnd (or its repeat
// end date, if earlier) into instances ready for SaveRecurringEvents.
func PlanSeries(template models.Event, horizonEnd civil.Date) []models.Event {
	instances := recurrence.Expand(template, template.Date, horizonEnd)
	for i := range instances {
		instances[i].ID = ""
		instances[i].Repeat.GroupID = ""
	}
	return instances
}
