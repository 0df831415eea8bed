package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ClockLayout is the layout of Event.StartTime and Event.EndTime.
const ClockLayout = "15:04"

// Category is the fixed set of event categories. The values are the labels
// stored by the events API.
type Category string

const (
	CategoryWork     Category = "업무"
	CategoryPersonal Category = "개인"
	CategoryFamily   Category = "가족"
	CategoryOther    Category = "기타"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryWork, CategoryPersonal, CategoryFamily, CategoryOther}

var categoryAliases = map[string]Category{
	"work":     CategoryWork,
	"personal": CategoryPersonal,
	"family":   CategoryFamily,
	"other":    CategoryOther,
}

// ParseCategory accepts either a stored label or its English alias.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if c.Valid() {
		return c, nil
	}
	if alias, ok := categoryAliases[strings.ToLower(s)]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Event is one calendar occurrence.
type Event struct {
	// ID is assigned by the gateway on creation. Empty for events not yet saved.
	ID string `json:"id"`

	Title string `json:"title"`

	// Date is the calendar day of the occurrence.
	Date civil.Date `json:"date"`

	// StartTime and EndTime are local clock times ("HH:MM"), StartTime < EndTime.
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`

	Description string   `json:"description"`
	Location    string   `json:"location"`
	Category    Category `json:"category"`

	Repeat RepeatSpec `json:"repeat"`

	// NotificationTime is the alarm lead time in minutes before StartTime.
	NotificationTime int `json:"notificationTime"`
}

// Validation errors returned by Event.Validate.
var (
	ErrTitleRequired     = errors.New("title is required")
	ErrInvalidTime       = errors.New("start and end time must be HH:MM")
	ErrTimeOrder         = errors.New("start time must be before end time")
	ErrInvalidCategory   = errors.New("unknown category")
	ErrNegativeLeadTime  = errors.New("notification time must not be negative")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidInterval   = errors.New("repeat interval must be at least 1")
	ErrInvalidRepeatType = errors.New("unknown repeat type")
	ErrEndBeforeStart    = errors.New("repeat end date is before the event date")
	ErrGroupWithoutType  = errors.New("a non-recurring event cannot belong to a series")
)

// Validate reports the first broken invariant of e, or nil.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrTitleRequired
	}
	if !e.Date.IsValid() {
		return ErrInvalidDate
	}
	start, err := time.Parse(ClockLayout, e.StartTime)
	if err != nil {
		return ErrInvalidTime
	}
	end, err := time.Parse(ClockLayout, e.EndTime)
	if err != nil {
		return ErrInvalidTime
	}
	if !start.Before(end) {
		return ErrTimeOrder
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, e.Category)
	}
	if e.NotificationTime < 0 {
		return ErrNegativeLeadTime
	}
	return e.Repeat.validate(e.Date)
}

func (r RepeatSpec) validate(anchor civil.Date) error {
	switch r.Type {
	case RepeatNone:
		if r.GroupID != "" {
			return ErrGroupWithoutType
		}
		return nil
	case RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		if r.Interval < 1 {
			return ErrInvalidInterval
		}
		if r.EndDate != nil {
			if !r.EndDate.IsValid() {
				return ErrInvalidDate
			}
			if r.EndDate.Before(anchor) {
				return ErrEndBeforeStart
			}
		}
		return nil
	default:
		return ErrInvalidRepeatType
	}
}

// Start returns the local start instant of the event.
func (e *Event) Start() time.Time {
	return e.at(e.StartTime)
}

// End returns the local end instant of the event.
func (e *Event) End() time.Time {
	return e.at(e.EndTime)
}

// AlarmAt returns the instant the notification for e is due.
func (e *Event) AlarmAt() time.Time {
	return e.Start().Add(-time.Duration(e.NotificationTime) * time.Minute)
}

func (e *Event) at(clock string) time.Time {
	day := e.Date.In(time.Local)
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return day
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute)
}

// Detach turns a series member into a standalone event: the cadence becomes
// RepeatNone and the group identifier is dropped.
func (e *Event) Detach() {
	e.Repeat = RepeatSpec{Type: RepeatNone, Interval: 1}
}

// Clone returns a copy of e that shares no pointers with it.
func (e Event) Clone() Event {
	if e.Repeat.EndDate != nil {
		end := *e.Repeat.EndDate
		e.Repeat.EndDate = &end
	}
	return e
}

// EventList is the JSON envelope for event collections on the wire.
type EventList struct {
	Events []Event `json:"events"`
}
