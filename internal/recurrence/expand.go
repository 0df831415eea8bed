// Package recurrence expands a recurring event template into dated occurrences.
//
// Expansion is pure: the same template and window always produce the same
// sequence, and nothing is read from or written to shared state.
package recurrence

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/mmynk/calendar/internal/models"
)

const (
	// maxIterations bounds the candidate loop for any template.
	maxIterations = 1000

	// maxMonthlySkips is the number of consecutive candidate months without the
	// anchor day after which a monthly series is considered exhausted.
	maxMonthlySkips = 24

	// maxYearlySkips is the same bound for yearly series anchored on Feb 29.
	maxYearlySkips = 10
)

// Expand returns the occurrences of template whose date falls in
// [rangeStart, effectiveEnd], where effectiveEnd is the earlier of the template's
// repeat end date and rangeEnd.
//
// A non-recurring template is returned unchanged when its date is in range.
// Recurring occurrences are copies of the template with Date replaced and ID set
// to "<template id>-<n>", n counting emitted occurrences from zero.
func Expand(template models.Event, rangeStart, rangeEnd civil.Date) []models.Event {
	if template.Repeat.Type == models.RepeatNone {
		if inRange(template.Date, rangeStart, rangeEnd) {
			return []models.Event{template}
		}
		return nil
	}

	effectiveEnd := rangeEnd
	if end := template.Repeat.EndDate; end != nil && end.Before(rangeEnd) {
		effectiveEnd = *end
	}

	var (
		out     []models.Event
		prev    civil.Date
		started bool
		skips   int
	)
	first := firstIndex(template.Date, template.Repeat, rangeStart)
	for k := first; k < first+maxIterations; k++ {
		date, ok := candidate(template.Date, template.Repeat, k)
		if !ok {
			skips++
			if skips >= skipLimit(template.Repeat.Type) {
				break
			}
			continue
		}
		skips = 0

		if started && !date.After(prev) {
			break
		}
		if date.After(effectiveEnd) {
			break
		}
		prev, started = date, true

		if date.Before(rangeStart) {
			continue
		}
		instance := template.Clone()
		instance.ID = fmt.Sprintf("%s-%d", template.ID, len(out))
		instance.Date = date
		out = append(out, instance)
	}
	return out
}

// Next returns the first occurrence of template strictly after the given date.
// The boolean is false when the series has no further occurrence.
func Next(template models.Event, after civil.Date) (civil.Date, bool) {
	if template.Repeat.Type == models.RepeatNone {
		return template.Date, template.Date.After(after)
	}

	skips := 0
	var prev civil.Date
	first := firstIndex(template.Date, template.Repeat, after.AddDays(1))
	for k := first; k < first+maxIterations; k++ {
		date, ok := candidate(template.Date, template.Repeat, k)
		if !ok {
			skips++
			if skips >= skipLimit(template.Repeat.Type) {
				return civil.Date{}, false
			}
			continue
		}
		skips = 0
		if k > first && !date.After(prev) {
			return civil.Date{}, false
		}
		if end := template.Repeat.EndDate; end != nil && date.After(*end) {
			return civil.Date{}, false
		}
		if date.After(after) {
			return date, true
		}
		prev = date
	}
	return civil.Date{}, false
}

// candidate computes the k-th candidate date of a series anchored at anchor.
// The boolean is false when the candidate does not exist on the calendar
// (a 31st in a shorter month, Feb 29 in a common year).
func candidate(anchor civil.Date, spec models.RepeatSpec, k int) (civil.Date, bool) {
	switch spec.Type {
	case models.RepeatNone:
		return anchor, k == 0
	case models.RepeatDaily:
		return anchor.AddDays(spec.Interval * k), true
	case models.RepeatWeekly:
		return anchor.AddDays(7 * spec.Interval * k), true
	case models.RepeatMonthly:
		months := int(anchor.Month) - 1 + spec.Interval*k
		year := anchor.Year + floorDiv(months, 12)
		month := time.Month(months-floorDiv(months, 12)*12) + 1
		if anchor.Day > DaysIn(year, month) {
			return civil.Date{}, false
		}
		return civil.Date{Year: year, Month: month, Day: anchor.Day}, true
	case models.RepeatYearly:
		year := anchor.Year + spec.Interval*k
		if anchor.Month == time.February && anchor.Day == 29 && !IsLeapYear(year) {
			return civil.Date{}, false
		}
		return civil.Date{Year: year, Month: anchor.Month, Day: anchor.Day}, true
	default:
		return civil.Date{}, false
	}
}

// firstIndex returns the smallest k whose candidate can fall on or after from.
// Daily and weekly candidates before from are skipped arithmetically, so the
// iteration bound applies to the walked span only. Monthly and yearly series
// start at zero.
func firstIndex(anchor civil.Date, spec models.RepeatSpec, from civil.Date) int {
	var step int
	switch spec.Type {
	case models.RepeatDaily:
		step = spec.Interval
	case models.RepeatWeekly:
		step = 7 * spec.Interval
	}
	if step <= 0 || !from.After(anchor) {
		return 0
	}
	return (from.DaysSince(anchor) + step - 1) / step
}

func skipLimit(t models.RepeatType) int {
	switch t {
	case models.RepeatMonthly:
		return maxMonthlySkips
	case models.RepeatYearly:
		return maxYearlySkips
	case models.RepeatNone, models.RepeatDaily, models.RepeatWeekly:
		return 1
	default:
		return 1
	}
}

// IsLeapYear reports whether year has a Feb 29.
func IsLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func inRange(d, start, end civil.Date) bool {
	return !d.Before(start) && !d.After(end)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
