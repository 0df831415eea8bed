package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/civil"

	"github.com/mmynk/calendar/internal/storage/storagetest"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "calendar-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	storagetest.Run(t, newTestStore(t))
}

func TestSQLiteStoreReopen(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "test.db")
	ctx := context.Background()

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	event := storagetest.Event("재시작", civil.Date{Year: 2025, Month: 6, Day: 1})
	if err := store.CreateEvent(ctx, &event); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	store.Close()

	// Migrations are idempotent and data survives a restart.
	store, err = New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer store.Close()

	got, err := store.GetEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("GetEvent after reopen failed: %v", err)
	}
	if got.Title != "재시작" {
		t.Errorf("got title %q", got.Title)
	}
}
