// Package mysql is the MySQL backend for thought storage. It owns pool
// configuration and schema migrations; queries live in sqlstore.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
)

// Options describe how to reach the MySQL server.
type Options struct {
	Addr     string
	User     string
	Password string
	Database string
	// TLS is the driver's tls mode: "false" (or empty), "true", "skip-verify"
	// or "preferred". Verified modes use the system roots, which fall back to
	// the bundled roots on images without a CA store.
	TLS string
	// PoolSize caps open connections; callers beyond it wait for a release.
	PoolSize int
}

// DB wraps a single MySQL connection pool shared by readers and writers.
type DB struct {
	Pool *sql.DB
}

// DSN builds the driver DSN for opts. Times are parsed into time.Time and
// interpreted as UTC, matching how sqlstore writes them.
func DSN(opts Options) string {
	cfg := gomysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = opts.Addr
	cfg.User = opts.User
	cfg.Passwd = opts.Password
	cfg.DBName = opts.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Timeout = 5 * time.Second
	// Affected rows count matched rows, so an update that rewrites identical
	// values is still seen as applied by guarded mutations.
	cfg.ClientFoundRows = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	if opts.TLS != "" && opts.TLS != "false" {
		cfg.TLSConfig = opts.TLS
	}
	return cfg.FormatDSN()
}

// NewDB opens and pings a MySQL pool described by opts.
func NewDB(ctx context.Context, opts Options) (*DB, error) {
	return OpenDSN(ctx, DSN(opts), opts.PoolSize)
}

// OpenDSN opens and pings a MySQL pool from a raw DSN.
func OpenDSN(ctx context.Context, dsn string, poolSize int) (*DB, error) {
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	pool.SetMaxOpenConns(poolSize)
	pool.SetMaxIdleConns(poolSize)
	pool.SetConnMaxLifetime(3 * time.Minute)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the pool.
func (db *DB) Close() error {
	if err := db.Pool.Close(); err != nil {
		return fmt.Errorf("close mysql: %w", err)
	}
	return nil
}
