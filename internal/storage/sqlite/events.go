package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/mmynk/calendar/internal/models"
	"github.com/mmynk/calendar/internal/storage"
)

const eventColumns = `id, title, date, start_time, end_time, description, location, category,
	repeat_type, repeat_interval, repeat_end_date, repeat_group_id, notification_time`

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ListEvents returns every event ordered by date and start time.
func (s *SQLiteStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.queryEvents(ctx, "SELECT "+eventColumns+" FROM events ORDER BY date, start_time, id")
}

// GetEvent retrieves an event by ID.
func (s *SQLiteStore) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return event, nil
}

// CreateEvent persists a new event to the database.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if err := insertEvent(ctx, s.db, event); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// CreateEvents persists a batch of events atomically.
func (s *SQLiteStore) CreateEvents(ctx context.Context, events []models.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range events {
		if events[i].ID == "" {
			events[i].ID = uuid.New().String()
		}
		if err := insertEvent(ctx, tx, &events[i]); err != nil {
			return fmt.Errorf("failed to insert event %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateEvent replaces an existing event.
func (s *SQLiteStore) UpdateEvent(ctx context.Context, event *models.Event) error {
	if err := updateEvent(ctx, s.db, event); err != nil {
		return err
	}
	return nil
}

// UpdateEvents replaces a batch of events atomically.
func (s *SQLiteStore) UpdateEvents(ctx context.Context, events []models.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range events {
		if err := updateEvent(ctx, tx, &events[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteEvent removes an event by ID.
func (s *SQLiteStore) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// ListSeries returns the members of a series ordered by date.
func (s *SQLiteStore) ListSeries(ctx context.Context, groupID string) ([]models.Event, error) {
	return s.queryEvents(ctx,
		"SELECT "+eventColumns+" FROM events WHERE repeat_group_id = ? ORDER BY date, start_time, id",
		groupID,
	)
}

// DeleteSeries removes every member of a series.
func (s *SQLiteStore) DeleteSeries(ctx context.Context, groupID string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE repeat_group_id = ?", groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete series: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check deleted rows: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteStore) queryEvents(ctx context.Context, query string, args ...any) ([]models.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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
	_, err := db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Date.String(), e.StartTime, e.EndTime, e.Description, e.Location,
		string(e.Category), e.Repeat.Type.String(), e.Repeat.Interval, endDate, groupID,
		e.NotificationTime, time.Now().Unix(),
	)
	return err
}

func updateEvent(ctx context.Context, db execer, e *models.Event) error {
	endDate, groupID := repeatColumns(e.Repeat)
	res, err := db.ExecContext(ctx,
		`UPDATE events SET title = ?, date = ?, start_time = ?, end_time = ?, description = ?,
		 location = ?, category = ?, repeat_type = ?, repeat_interval = ?, repeat_end_date = ?,
		 repeat_group_id = ?, notification_time = ?
		 WHERE id = ?`,
		e.Title, e.Date.String(), e.StartTime, e.EndTime, e.Description, e.Location,
		string(e.Category), e.Repeat.Type.String(), e.Repeat.Interval, endDate, groupID,
		e.NotificationTime, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("event %s: %w", e.ID, storage.ErrNotFound)
	}
	return nil
}

// repeatColumns maps the optional repeat fields to nullable column values.
func repeatColumns(r models.RepeatSpec) (endDate, groupID any) {
	if r.EndDate != nil {
		endDate = r.EndDate.String()
	}
	if r.GroupID != "" {
		groupID = r.GroupID
	}
	return endDate, groupID
}

func scanEvent(row scanner) (*models.Event, error) {
	var (
		e          models.Event
		date       string
		category   string
		repeatType string
		endDate    sql.NullString
		groupID    sql.NullString
	)
	err := row.Scan(&e.ID, &e.Title, &date, &e.StartTime, &e.EndTime, &e.Description, &e.Location,
		&category, &repeatType, &e.Repeat.Interval, &endDate, &groupID, &e.NotificationTime)
	if err != nil {
		return nil, err
	}

	if e.Date, err = civil.ParseDate(date); err != nil {
		return nil, fmt.Errorf("bad date %q: %w", date, err)
	}
	e.Category = models.Category(category)
	if e.Repeat.Type, err = models.ParseRepeatType(repeatType); err != nil {
		return nil, err
	}
	if endDate.Valid {
		d, err := civil.ParseDate(endDate.String)
		if err != nil {
			return nil, fmt.Errorf("bad repeat end date %q: %w", endDate.String, err)
		}
		e.Repeat.EndDate = &d
	}
	if groupID.Valid {
		e.Repeat.GroupID = groupID.String
	}
	return &e, nil
}
