// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/calendar/internal/models"
)

// ErrNotFound is returned when an event or series does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for event storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	// ListEvents returns every stored event ordered by date and start time.
	ListEvents(ctx context.Context) ([]models.Event, error)

	// GetEvent retrieves an event by its ID.
	// Returns ErrNotFound if the event does not exist.
	GetEvent(ctx context.Context, id string) (*models.Event, error)

	// CreateEvent persists a new event. The ID is generated when empty.
	CreateEvent(ctx context.Context, event *models.Event) error

	// CreateEvents persists all events in one transaction: either every event
	// is stored or none is. Empty IDs are generated.
	CreateEvents(ctx context.Context, events []models.Event) error

	// UpdateEvent replaces an existing event.
	// Returns ErrNotFound if the event does not exist.
	UpdateEvent(ctx context.Context, event *models.Event) error

	// UpdateEvents replaces every given event in one transaction.
	UpdateEvents(ctx context.Context, events []models.Event) error

	// DeleteEvent removes an event by ID.
	// Returns ErrNotFound if the event does not exist.
	DeleteEvent(ctx context.Context, id string) error

	// ListSeries returns the members of a recurring series ordered by date.
	// An unknown group yields an empty slice.
	ListSeries(ctx context.Context, groupID string) ([]models.Event, error)

	// DeleteSeries removes every member of a series and returns how many were removed.
	DeleteSeries(ctx context.Context, groupID string) (int, error)

	// Close releases any resources held by the store.
	Close() error
}
