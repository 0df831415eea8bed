package models

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// RepeatType is the recurrence cadence of an event.
type RepeatType int

const (
	RepeatNone RepeatType = iota
	RepeatDaily
	RepeatWeekly
	RepeatMonthly
	RepeatYearly
)

var repeatTypeNames = [...]string{
	RepeatNone:    "none",
	RepeatDaily:   "daily",
	RepeatWeekly:  "weekly",
	RepeatMonthly: "monthly",
	RepeatYearly:  "yearly",
}

// ParseRepeatType maps a wire name ("none", "daily", ...) to a RepeatType.
// An empty string is treated as "none".
func ParseRepeatType(s string) (RepeatType, error) {
	if s == "" {
		return RepeatNone, nil
	}
	for i, name := range repeatTypeNames {
		if name == s {
			return RepeatType(i), nil
		}
	}
	return RepeatNone, fmt.Errorf("unknown repeat type %q", s)
}

func (t RepeatType) String() string {
	if t < RepeatNone || t > RepeatYearly {
		return fmt.Sprintf("RepeatType(%d)", int(t))
	}
	return repeatTypeNames[t]
}

// Valid reports whether t is one of the five supported cadences.
func (t RepeatType) Valid() bool {
	return t >= RepeatNone && t <= RepeatYearly
}

// MarshalText implements encoding.TextMarshaler.
func (t RepeatType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid repeat type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *RepeatType) UnmarshalText(b []byte) error {
	parsed, err := ParseRepeatType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// RepeatSpec describes how an event recurs.
type RepeatSpec struct {
	// Type is the cadence. RepeatNone means a standalone event.
	Type RepeatType `json:"type"`

	// Interval is the step count between occurrences (every N days/weeks/months/years).
	Interval int `json:"interval"`

	// EndDate bounds generation when set. Nil means the series is bounded only by
	// the caller's window.
	EndDate *civil.Date `json:"endDate,omitempty"`

	// GroupID is shared by every occurrence materialized together from one template.
	// It is assigned by the gateway and is always empty for RepeatNone.
	GroupID string `json:"id,omitempty"`
}

// IsRecurring reports whether the spec has an active cadence.
func (r RepeatSpec) IsRecurring() bool {
	return r.Type != RepeatNone
}

// InSeries reports whether an event with this spec belongs to a resolvable series:
// it recurs and carries a group identifier.
func (r RepeatSpec) InSeries() bool {
	return r.Type != RepeatNone && r.GroupID != ""
}

// SameSchedule reports whether two specs describe the same recurrence, ignoring GroupID.
func (r RepeatSpec) SameSchedule(o RepeatSpec) bool {
	if r.Type != o.Type || r.Interval != o.Interval {
		return false
	}
	if (r.EndDate == nil) != (o.EndDate == nil) {
		return false
	}
	return r.EndDate == nil || *r.EndDate == *o.EndDate
}
