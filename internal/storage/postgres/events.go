package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmynk/calendar/internal/models"
	"github.com/mmynk/calendar/internal/storage"
)

const eventColumns = `id, title, date, start_time, end_time, description, location, category,
	repeat_type, repeat_interval, repeat_end_date, repeat_group_id, notification_time`

// execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ListEvents returns every event ordered by date and start time.
func (s *PostgresStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.queryEvents(ctx, "SELECT "+eventColumns+" FROM events ORDER BY date, start_time, id")
}

// GetEvent retrieves an event by ID.
func (s *PostgresStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+eventColumns+" FROM events WHERE id = $1", id)
	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// CreateEvent persists a new event.
func (s *PostgresStore) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if err := insertEvent(ctx, s.pool, event); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// CreateEvents persists a batch of events atomically.
func (s *PostgresStore) CreateEvents(ctx context.Context, events []models.Event) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range events {
		if events[i].ID == "" {
			events[i].ID = uuid.New().String()
		}
		if err := insertEvent(ctx, tx, &events[i]); err != nil {
			return fmt.Errorf("failed to insert event %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateEvent replaces an existing event.
func (s *PostgresStore) UpdateEvent(ctx context.Context, event *models.Event) error {
	return updateEvent(ctx, s.pool, event)
}

// UpdateEvents replaces a batch of events atomically.
func (s *PostgresStore) UpdateEvents(ctx context.Context, events []models.Event) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range events {
		if err := updateEvent(ctx, tx, &events[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteEvent removes an event by ID.
func (s *PostgresStore) DeleteEvent(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListSeries returns the members of a series ordered by date.
func (s *PostgresStore) ListSeries(ctx context.Context, groupID string) ([]models.Event, error) {
	return s.queryEvents(ctx,
		"SELECT "+eventColumns+" FROM events WHERE repeat_group_id = $1 ORDER BY date, start_time, id",
		groupID,
	)
}

// DeleteSeries removes every member of a series.
func (s *PostgresStore) DeleteSeries(ctx context.Context, groupID string) (int, error) {
	tag, err := s.pool.Exec(ctx, "DELETE FROM events WHERE repeat_group_id = $1", groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete series: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) queryEvents(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func insertEvent(ctx context.Context, db execer, e *models.Event) error {
	endDate, groupID := repeatColumns(e.Repeat)
	_, err := db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		e.ID, e.Title, e.Date.In(time.UTC), e.StartTime, e.EndTime, e.Description, e.Location,
		string(e.Category), e.Repeat.Type.String(), e.Repeat.Interval, endDate, groupID,
		e.NotificationTime,
	)
	return err
}

func updateEvent(ctx context.Context, db execer, e *models.Event) error {
	endDate, groupID := repeatColumns(e.Repeat)
	tag, err := db.Exec(ctx,
		`UPDATE events SET title = $1, date = $2, start_time = $3, end_time = $4, description = $5,
		 location = $6, category = $7, repeat_type = $8, repeat_interval = $9, repeat_end_date = $10,
		 repeat_group_id = $11, notification_time = $12
		 WHERE id = $13`,
		e.Title, e.Date.In(time.UTC), e.StartTime, e.EndTime, e.Description, e.Location,
		string(e.Category), e.Repeat.Type.String(), e.Repeat.Interval, endDate, groupID,
		e.NotificationTime, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("event %s: %w", e.ID, storage.ErrNotFound)
	}
	return nil
}

func repeatColumns(r models.RepeatSpec) (*time.Time, *string) {
	var (
		endDate *time.Time
		groupID *string
	)
	if r.EndDate != nil {
		t := r.EndDate.In(time.UTC)
		endDate = &t
	}
	if r.GroupID != "" {
		id := r.GroupID
		groupID = &id
	}
	return endDate, groupID
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var (
		e          models.Event
		date       time.Time
		category   string
		repeatType string
		endDate    *time.Time
		groupID    *string
	)
	err := row.Scan(&e.ID, &e.Title, &date, &e.StartTime, &e.EndTime, &e.Description, &e.Location,
		&category, &repeatType, &e.Repeat.Interval, &endDate, &groupID, &e.NotificationTime)
	if err != nil {
		return nil, err
	}

	e.Date = civil.DateOf(date)
	e.Category = models.Category(category)
	if e.Repeat.Type, err = models.ParseRepeatType(repeatType); err != nil {
		return nil, err
	}
	if endDate != nil {
		d := civil.DateOf(*endDate)
		e.Repeat.EndDate = &d
	}
	if groupID != nil {
		e.Repeat.GroupID = *groupID
	}
	return &e, nil
}
