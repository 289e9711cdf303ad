package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // CA roots for MySQL TLS in a scratch container

	"github.com/ericfisherdev/whisperedthoughts/internal/adapter/driven/argon2id"
	mysqladapter "github.com/ericfisherdev/whisperedthoughts/internal/adapter/driven/mysql"
	sqliteadapter "github.com/ericfisherdev/whisperedthoughts/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/whisperedthoughts/internal/adapter/driving/http"
	"github.com/ericfisherdev/whisperedthoughts/internal/application"
	"github.com/ericfisherdev/whisperedthoughts/internal/config"
	"github.com/ericfisherdev/whisperedthoughts/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on a missing admin password).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_driver", cfg.DBDriver,
		"pool_size", cfg.PoolSize,
		"pool_wait_timeout", cfg.PoolWaitTimeout,
		"strict_validation", cfg.StrictValidation,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the store and run migrations.
	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// 4. Wire the service.
	hashParams := argon2id.DefaultParams()
	hashParams.Memory = cfg.HashMemoryKiB
	hasher := argon2id.New(hashParams)
	thoughtSvc := application.NewThoughtService(store, hasher, cfg.AdminPassword, cfg.StrictValidation, slog.Default())

	// 5. Create HTTP handler with routes and middleware.
	apiHandler := httphandler.NewHandler(thoughtSvc, cfg.AllowedOrigin, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	slog.Info("whisperedthoughts started", "listen_addr", cfg.ListenAddr)

	// 6. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	// 7. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// openStore opens the configured backend, applies migrations and returns the
// thought store with the closer that releases its pools.
func openStore(ctx context.Context, cfg *config.Config) (driven.ThoughtStore, io.Closer, error) {
	switch cfg.DBDriver {
	case config.DriverMySQL:
		db, err := mysqladapter.NewDB(ctx, mysqladapter.Options{
			Addr:     cfg.MySQLAddr,
			User:     cfg.MySQLUser,
			Password: cfg.MySQLPassword,
			Database: cfg.MySQLDatabase,
			TLS:      cfg.MySQLTLS,
			PoolSize: cfg.PoolSize,
		})
		if err != nil {
			return nil, nil, err
		}
		slog.Info("database opened", "driver", cfg.DBDriver, "addr", cfg.MySQLAddr, "database", cfg.MySQLDatabase, "tls", cfg.MySQLTLS)

		version, err := mysqladapter.RunMigrations(db.Pool)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		slog.Info("migrations complete", "version", version)

		return mysqladapter.NewThoughtRepo(db, cfg.PoolWaitTimeout, slog.Default()), db, nil

	default:
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath, cfg.PoolSize)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("database opened", "driver", cfg.DBDriver, "path", db.Path())

		version, err := sqliteadapter.RunMigrations(db.Writer)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		slog.Info("migrations complete", "version", version)

		return sqliteadapter.NewThoughtRepo(db, cfg.PoolWaitTimeout, slog.Default()), db, nil
	}
}
