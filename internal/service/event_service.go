// Package service implements the server-side rules of the events API on top of a storage.Store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mmynk/calendar/internal/metrics"
	"github.com/mmynk/calendar/internal/models"
	"github.com/mmynk/calendar/internal/storage"
)

// ErrInvalidArgument marks a request the caller must fix before retrying.
var ErrInvalidArgument = errors.New("invalid argument")

// EventService owns event and series persistence rules.
type EventService struct {
	store   storage.Store
	metrics *metrics.Metrics
}

// NewEventService creates a new EventService. m may be nil.
func NewEventService(store storage.Store, m *metrics.Metrics) *EventService {
	return &EventService{store: store, metrics: m}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
}

// ListEvents returns every stored event.
func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

// CreateEvent stores a single event under a fresh ID. Series membership is
// only ever assigned by CreateSeries, so any incoming group ID is dropped.
func (s *EventService) CreateEvent(ctx context.Context, event models.Event) (models.Event, error) {
	slog.Info("CreateEvent request received", "title", event.Title, "date", event.Date)

	event.ID = uuid.New().String()
	event.Repeat.GroupID = ""
	if err := event.Validate(); err != nil {
		return models.Event{}, invalid(err)
	}

	if err := s.store.CreateEvent(ctx, &event); err != nil {
		return models.Event{}, fmt.Errorf("failed to create event: %w", err)
	}
	slog.Info("Event created", "id", event.ID)
	return event, nil
}

// UpdateEvent replaces the event with the given id.
//
// The stored group ID survives only when the payload still names it and still
// recurs; a RepeatNone payload always leaves the series.
func (s *EventService) UpdateEvent(ctx context.Context, id string, event models.Event) (models.Event, error) {
	slog.Info("UpdateEvent request received", "id", id)

	stored, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return models.Event{}, err
	}

	event.ID = id
	switch {
	case event.Repeat.Type == models.RepeatNone:
		event.Repeat.GroupID = ""
	case event.Repeat.GroupID != stored.Repeat.GroupID:
		event.Repeat.GroupID = ""
	}
	if err := event.Validate(); err != nil {
		return models.Event{}, invalid(err)
	}

	if err := s.store.UpdateEvent(ctx, &event); err != nil {
		return models.Event{}, fmt.Errorf("failed to update event: %w", err)
	}
	if stored.Repeat.GroupID != "" && event.Repeat.GroupID == "" {
		slog.Info("Event detached from series", "id", id, "group_id", stored.Repeat.GroupID)
	}
	return event, nil
}

// DeleteEvent removes one event.
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	slog.Info("DeleteEvent request received", "id", id)
	return s.store.DeleteEvent(ctx, id)
}

// CreateSeries materializes a recurring series: every instance gets its own
// ID and all of them share one new group ID. The instances must recur and
// agree on their recurrence settings.
func (s *EventService) CreateSeries(ctx context.Context, events []models.Event) (out []models.Event, err error) {
	slog.Info("CreateSeries request received", "count", len(events))
	defer func() { s.metrics.SeriesOp("create", err) }()

	if len(events) == 0 {
		return nil, invalid(errors.New("events list is empty"))
	}

	groupID := uuid.New().String()
	out = make([]models.Event, len(events))
	for i, e := range events {
		if !e.Repeat.IsRecurring() {
			return nil, invalid(fmt.Errorf("event %d: series members must recur", i))
		}
		if !e.Repeat.SameSchedule(events[0].Repeat) {
			return nil, invalid(fmt.Errorf("event %d: recurrence differs from the first event", i))
		}
		e.ID = uuid.New().String()
		e.Repeat.GroupID = groupID
		if err := e.Validate(); err != nil {
			return nil, invalid(fmt.Errorf("event %d: %w", i, err))
		}
		out[i] = e.Clone()
	}

	if err := s.store.CreateEvents(ctx, out); err != nil {
		return nil, fmt.Errorf("failed to create series: %w", err)
	}
	s.metrics.SeriesCreated(len(out))
	slog.Info("Series created", "group_id", groupID, "count", len(out))
	return out, nil
}

// UpdateSeries applies patch to every member of the series atomically and
// returns the refreshed members.
func (s *EventService) UpdateSeries(ctx context.Context, groupID string, patch models.EventPatch) (members []models.Event, err error) {
	slog.Info("UpdateSeries request received", "group_id", groupID)
	defer func() { s.metrics.SeriesOp("update", err) }()

	members, err = s.store.ListSeries(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load series: %w", err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("series %s: %w", groupID, storage.ErrNotFound)
	}

	for i := range members {
		patch.Apply(&members[i])
		if err := members[i].Validate(); err != nil {
			return nil, invalid(err)
		}
	}
	if err := s.store.UpdateEvents(ctx, members); err != nil {
		return nil, fmt.Errorf("failed to update series: %w", err)
	}
	slog.Info("Series updated", "group_id", groupID, "count", len(members))
	return members, nil
}

// DeleteSeries removes every member of the series.
func (s *EventService) DeleteSeries(ctx context.Context, groupID string) (err error) {
	slog.Info("DeleteSeries request received", "group_id", groupID)
	defer func() { s.metrics.SeriesOp("delete", err) }()

	n, err := s.store.DeleteSeries(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete series: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("series %s: %w", groupID, storage.ErrNotFound)
	}
	slog.Info("Series deleted", "group_id", groupID, "count", n)
	return nil
}
