package calendar

import (
	"context"

	"github.com/mmynk/calendar/internal/models"
)

// Gateway is the persistence collaborator of a Coordinator. Any returned error
// is a failure of the enclosing operation; implementations do not need to
// distinguish causes.
type Gateway interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	CreateEvent(ctx context.Context, event models.Event) (models.Event, error)
	UpdateEvent(ctx context.Context, id string, event models.Event) (models.Event, error)
	DeleteEvent(ctx context.Context, id string) error

	// CreateEvents materializes a series. The returned events share one freshly
	// assigned group identifier.
	CreateEvents(ctx context.Context, events []models.Event) ([]models.Event, error)

	// UpdateSeries applies patch to every member of the series and returns the
	// full refreshed series.
	UpdateSeries(ctx context.Context, groupID string, patch models.EventPatch) ([]models.Event, error)

	DeleteSeries(ctx context.Context, groupID string) error
}
