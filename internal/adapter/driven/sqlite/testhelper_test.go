package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

// setupTestDB creates a WAL-mode SQLite database in a per-test temp dir.
// A file is used instead of a shared-cache in-memory database so readers and
// the writer interact through WAL exactly as in production: a read running
// alongside a write waits on busy_timeout rather than failing with a
// shared-cache table lock.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "thoughts.db"), 4)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if _, err := RunMigrations(db.Writer); err != nil {
		_ = db.Close()
		t.Fatalf("run migrations: %v", err)
	}

	t.Cleanup(func() { _ = db.Close() })

	return db
}
