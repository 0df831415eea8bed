package sqlite

import "database/sql"

// schema contains the SQL statements to set up the database schema.
// Dates are stored as ISO "YYYY-MM-DD" text so they sort lexically.
const schema = `
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL,
    repeat_type TEXT NOT NULL DEFAULT 'none',
    repeat_interval INTEGER NOT NULL DEFAULT 1,
    repeat_end_date TEXT,
    repeat_group_id TEXT,
    notification_time INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_date ON events(date, start_time);
CREATE INDEX IF NOT EXISTS idx_events_repeat_group_id ON events(repeat_group_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
