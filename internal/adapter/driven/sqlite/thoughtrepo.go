package sqlite

import (
	"log/slog"
	"time"

	"github.com/ericfisherdev/whisperedthoughts/internal/adapter/driven/sqlstore"
)

// NewThoughtRepo creates a ThoughtStore backed by db. Mutations use the single
// writer connection; password hashes are read and verified off it.
func NewThoughtRepo(db *DB, acquireTimeout time.Duration, logger *slog.Logger) *sqlstore.ThoughtRepo {
	return sqlstore.NewThoughtRepo(db.Writer, db.Reader, sqlstore.SQLite, acquireTimeout, logger)
}
