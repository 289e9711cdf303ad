// Package sqlstore implements the ThoughtStore port over database/sql. It is
// shared by the SQLite and MySQL adapters, which differ only in how they open
// their pools and migrate their schema.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/whisperedthoughts/internal/domain/model"
	"github.com/ericfisherdev/whisperedthoughts/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ThoughtStore = (*ThoughtRepo)(nil)

// TimestampLayout is the fixed-width UTC layout written to timestamp columns.
// Fixed width keeps SQLite's text ordering chronological.
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Dialect names the backend a ThoughtRepo talks to. The queries themselves
// are portable between SQLite and MySQL.
type Dialect struct {
	Name string
}

var (
	SQLite = Dialect{Name: "sqlite"}
	MySQL  = Dialect{Name: "mysql"}
)

// ThoughtRepo is the database/sql implementation of the ThoughtStore port.
// Writes go through writer and reads through reader; the two may be the same pool.
type ThoughtRepo struct {
	writer         *sql.DB
	reader         *sql.DB
	dialect        Dialect
	acquireTimeout time.Duration
	logger         *slog.Logger
}

// NewThoughtRepo creates a ThoughtRepo. acquireTimeout bounds how long any
// operation waits for a pooled connection.
func NewThoughtRepo(writer, reader *sql.DB, dialect Dialect, acquireTimeout time.Duration, logger *slog.Logger) *ThoughtRepo {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThoughtRepo{
		writer:         writer,
		reader:         reader,
		dialect:        dialect,
		acquireTimeout: acquireTimeout,
		logger:         logger,
	}
}

// Create inserts a thought. date and created_at are both set to t.CreatedAt.
func (r *ThoughtRepo) Create(ctx context.Context, t model.NewThought) (model.InsertResult, error) {
	const query = `INSERT INTO thoughts (receiver, content, username, password, date, created_at) VALUES (?, ?, ?, ?, ?, ?)`

	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	ts := formatTimestamp(createdAt)

	var res model.InsertResult
	err := r.withConn(ctx, r.writer, func(conn *sql.Conn) error {
		result, err := conn.ExecContext(ctx, query, t.Receiver, t.Content, t.Username, t.PasswordHash, ts, ts)
		if err != nil {
			return fmt.Errorf("insert thought: %w", err)
		}

		res.ID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		res.RowsAffected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("check rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.InsertResult{}, err
	}

	return res, nil
}

// ListAll returns every thought, most recently created first. The password
// column is not selected.
func (r *ThoughtRepo) ListAll(ctx context.Context) ([]model.Thought, error) {
	const query = `SELECT id, receiver, content, username, date, created_at, updated_at FROM thoughts ORDER BY created_at DESC, id DESC`

	var thoughts []model.Thought
	err := r.withConn(ctx, r.reader, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("list thoughts: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanThought(rows)
			if err != nil {
				return fmt.Errorf("scan thought: %w", err)
			}
			thoughts = append(thoughts, *t)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate thoughts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return thoughts, nil
}

// UpdateContent replaces the content of thought id and stamps updated_at,
// provided authorize accepts the stored password hash.
//
// authorize runs with no connection held. The update then only applies if the
// row still carries the hash that was authorized, so a concurrent delete turns
// into ErrThoughtNotFound rather than a lost write.
func (r *ThoughtRepo) UpdateContent(ctx context.Context, id int64, content string, updatedAt time.Time, authorize driven.AuthorizeFunc) error {
	const query = `UPDATE thoughts SET content = ?, updated_at = ? WHERE id = ? AND password = ?`

	_, err := r.guardedExec(ctx, id, authorize, func(hash string) (string, []any) {
		return query, []any{content, formatTimestamp(updatedAt), id, hash}
	})
	return err
}

// Delete removes thought id. With a nil authorize the row is removed without
// any check and a missing id affects zero rows; otherwise authorize must
// accept the stored password hash, and a missing id is ErrThoughtNotFound.
func (r *ThoughtRepo) Delete(ctx context.Context, id int64, authorize driven.AuthorizeFunc) (int64, error) {
	if authorize == nil {
		const query = `DELETE FROM thoughts WHERE id = ?`

		var affected int64
		err := r.withConn(ctx, r.writer, func(conn *sql.Conn) error {
			result, err := conn.ExecContext(ctx, query, id)
			if err != nil {
				return fmt.Errorf("delete thought %d: %w", id, err)
			}
			affected, err = result.RowsAffected()
			if err != nil {
				return fmt.Errorf("check rows affected: %w", err)
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
		return affected, nil
	}

	const query = `DELETE FROM thoughts WHERE id = ? AND password = ?`

	return r.guardedExec(ctx, id, authorize, func(hash string) (string, []any) {
		return query, []any{id, hash}
	})
}

// guardedMutationAttempts bounds how often a guarded mutation re-reads a row
// that changed between authorization and the write.
const guardedMutationAttempts = 2

// guardedExec reads the password hash of thought id, passes it to authorize
// and executes the statement built by stmt, which must match the row on both
// id and the authorized hash. Zero affected rows means the row changed after
// it was read; the row is read again and a vanished row is
// ErrThoughtNotFound.
func (r *ThoughtRepo) guardedExec(
	ctx context.Context,
	id int64,
	authorize driven.AuthorizeFunc,
	stmt func(hash string) (string, []any),
) (int64, error) {
	for range guardedMutationAttempts {
		hash, err := r.passwordHash(ctx, id)
		if err != nil {
			return 0, err
		}
		if authorize != nil {
			if err := authorize(hash); err != nil {
				return 0, err
			}
		}

		query, args := stmt(hash)

		var affected int64
		err = r.withConn(ctx, r.writer, func(conn *sql.Conn) error {
			result, err := conn.ExecContext(ctx, query, args...)
			if err != nil {
				return fmt.Errorf("mutate thought %d: %w", id, err)
			}
			affected, err = result.RowsAffected()
			if err != nil {
				return fmt.Errorf("check rows affected: %w", err)
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
		if affected > 0 {
			return affected, nil
		}

		r.logger.Debug("thought changed during guarded mutation", "id", id, "dialect", r.dialect.Name)
	}

	return 0, fmt.Errorf("thought %d: %w", id, ErrConcurrentModification)
}

// ErrConcurrentModification is returned when a guarded mutation keeps losing
// the race against other writers to the same thought.
var ErrConcurrentModification = errors.New("thought modified concurrently")

// Ping verifies a reader connection can be acquired and is alive.
func (r *ThoughtRepo) Ping(ctx context.Context) error {
	return r.withConn(ctx, r.reader, func(conn *sql.Conn) error {
		if err := conn.PingContext(ctx); err != nil {
			return fmt.Errorf("ping %s: %w", r.dialect.Name, err)
		}
		return nil
	})
}

// passwordHash reads the stored password hash of thought id from the reader
// pool. The connection is released before the hash is returned.
func (r *ThoughtRepo) passwordHash(ctx context.Context, id int64) (string, error) {
	const query = `SELECT password FROM thoughts WHERE id = ?`

	var hash string
	err := r.withConn(ctx, r.reader, func(conn *sql.Conn) error {
		err := conn.QueryRowContext(ctx, query, id).Scan(&hash)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("thought %d: %w", id, model.ErrThoughtNotFound)
		}
		if err != nil {
			return fmt.Errorf("load password for thought %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return hash, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanThought(s scanner) (*model.Thought, error) {
	var t model.Thought
	var date, createdAt string
	var updatedAt sql.NullString

	err := s.Scan(&t.ID, &t.Receiver, &t.Content, &t.Username, &date, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Date, err = parseTime(date)
	if err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if updatedAt.Valid {
		u, err := parseTime(updatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		t.UpdatedAt = &u
	}

	return &t, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// parseTime tries the datetime formats SQLite and MySQL drivers hand back.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		TimestampLayout,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999-07:00",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
