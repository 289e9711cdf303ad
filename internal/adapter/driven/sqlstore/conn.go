package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/whisperedthoughts/internal/domain/port/driven"
)

// withConn acquires a dedicated connection from db, waiting at most
// r.acquireTimeout, runs fn with it, and releases it on every exit path.
// A failure to release is logged and never replaces fn's result.
func (r *ThoughtRepo) withConn(ctx context.Context, db *sql.DB, fn func(conn *sql.Conn) error) error {
	acquireCtx, cancel := context.WithTimeout(ctx, r.acquireTimeout)
	conn, err := db.Conn(acquireCtx)
	cancel()
	if err != nil {
		// Only the acquire deadline counts as pool exhaustion; a cancelled
		// caller context is reported as-is.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: %w", driven.ErrStoreUnavailable, err)
		}
		return fmt.Errorf("acquire connection: %w", err)
	}

	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			r.logger.Error("error releasing connection", "dialect", r.dialect.Name, "error", closeErr)
		}
	}()

	return fn(conn)
}
