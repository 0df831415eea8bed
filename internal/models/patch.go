package models

// EventPatch carries the fields changed by a series-wide edit. Nil fields are left
// untouched. Dates and recurrence settings are never patched across a series.
type EventPatch struct {
	Title            *string   `json:"title,omitempty"`
	StartTime        *string   `json:"startTime,omitempty"`
	EndTime          *string   `json:"endTime,omitempty"`
	Description      *string   `json:"description,omitempty"`
	Location         *string   `json:"location,omitempty"`
	Category         *Category `json:"category,omitempty"`
	NotificationTime *int      `json:"notificationTime,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.StartTime == nil && p.EndTime == nil &&
		p.Description == nil && p.Location == nil && p.Category == nil &&
		p.NotificationTime == nil
}

// Apply writes the non-nil fields of p onto e.
func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		e.EndTime = *p.EndTime
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.NotificationTime != nil {
		e.NotificationTime = *p.NotificationTime
	}
}

// Diff returns the patch that turns before into after, limited to the fields an
// EventPatch can carry.
func Diff(before, after Event) EventPatch {
	var p EventPatch
	if before.Title != after.Title {
		p.Title = &after.Title
	}
	if before.StartTime != after.StartTime {
		p.StartTime = &after.StartTime
	}
	if before.EndTime != after.EndTime {
		p.EndTime = &after.EndTime
	}
	if before.Description != after.Description {
		p.Description = &after.Description
	}
	if before.Location != after.Location {
		p.Location = &after.Location
	}
	if before.Category != after.Category {
		p.Category = &after.Category
	}
	if before.NotificationTime != after.NotificationTime {
		p.NotificationTime = &after.NotificationTime
	}
	return p
}
