package mysql

import (
	"log/slog"
	"time"

	"github.com/ericfisherdev/whisperedthoughts/internal/adapter/driven/sqlstore"
)

// NewThoughtRepo creates a ThoughtStore backed by db. Reads and writes share
// the one pool.
func NewThoughtRepo(db *DB, acquireTimeout time.Duration, logger *slog.Logger) *sqlstore.ThoughtRepo {
	return sqlstore.NewThoughtRepo(db.Pool, db.Pool, sqlstore.MySQL, acquireTimeout, logger)
}
