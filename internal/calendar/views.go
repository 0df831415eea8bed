package calendar

import (
	"cmp"
	"slices"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/mmynk/calendar/internal/models"
)

// FindOverlaps returns the events that share candidate's date and whose
// [start, end) clock range intersects it. candidate itself is never reported.
func FindOverlaps(candidate models.Event, events []models.Event) []models.Event {
	var out []models.Event
	for _, e := range events {
		if candidate.ID != "" && e.ID == candidate.ID {
			continue
		}
		if e.Date != candidate.Date {
			continue
		}
		// "HH:MM" strings order the same way as the clock times they encode.
		if candidate.StartTime < e.EndTime && e.StartTime < candidate.EndTime {
			out = append(out, e)
		}
	}
	return out
}

// Search returns the events whose title, description, location or category
// contains term, ignoring case. An empty term matches everything.
func Search(events []models.Event, term string) []models.Event {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return slices.Clone(events)
	}
	var out []models.Event
	for _, e := range events {
		fields := []string{e.Title, e.Description, e.Location, string(e.Category)}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), term) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Between returns the events dated within [from, to], ordered by date then start time.
func Between(events []models.Event, from, to civil.Date) []models.Event {
	var out []models.Event
	for _, e := range events {
		if !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Event) int {
		switch {
		case a.Date.Before(b.Date):
			return -1
		case a.Date.After(b.Date):
			return 1
		}
		return cmp.Compare(a.StartTime, b.StartTime)
	})
	return out
}
