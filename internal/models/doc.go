// Package models defines the core domain models for the calendar.
//
// # Models
//
//   - Event: one concrete calendar occurrence (a single event or a member of a series)
//   - RepeatSpec: the recurrence descriptor attached to every Event
//   - EventPatch: the partial field set applied to every member of a series
//
// # Series
//
// A series is the set of persisted events sharing one RepeatSpec.GroupID. The group
// identifier is assigned by the gateway when the series is bulk-created and is the
// only link between members: there is no parent row.
//
// # Design Principles
//
//  1. Dates are civil dates (no time zone); clock times are "HH:MM" local strings.
//  2. RepeatType is a closed enum: every switch over it handles all five values.
//  3. An event with RepeatNone never carries a group identifier.
//  4. Wire names follow the REST contract of the events API ("repeat.id" is the group id).
package models
