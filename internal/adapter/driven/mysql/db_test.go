package mysql

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/whisperedthoughts/internal/domain/model"
)

func TestDSN(t *testing.T) {
	dsn := DSN(Options{
		Addr:     "db.internal:3306",
		User:     "whisper",
		Password: "p@ss",
		Database: "whispered_thoughts",
	})

	cfg, err := gomysql.ParseDSN(dsn)
	require.NoError(t, err)

	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "db.internal:3306", cfg.Addr)
	assert.Equal(t, "whisper", cfg.User)
	assert.Equal(t, "p@ss", cfg.Passwd)
	assert.Equal(t, "whispered_thoughts", cfg.DBName)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, time.UTC, cfg.Loc)
	assert.False(t, cfg.MultiStatements)
	assert.True(t, cfg.ClientFoundRows)
	assert.Empty(t, cfg.TLSConfig)
	assert.NotContains(t, dsn, "tls=")
}

func TestDSN_TLS(t *testing.T) {
	tests := []struct {
		mode    string
		wantDSN string
		wantCfg string
	}{
		{mode: "", wantCfg: ""},
		{mode: "false", wantCfg: ""},
		{mode: "true", wantDSN: "tls=true", wantCfg: "true"},
		{mode: "skip-verify", wantDSN: "tls=skip-verify", wantCfg: "skip-verify"},
		{mode: "preferred", wantDSN: "tls=preferred", wantCfg: "preferred"},
	}

	for _, tt := range tests {
		t.Run("mode="+tt.mode, func(t *testing.T) {
			dsn := DSN(Options{Addr: "db.internal:3306", User: "whisper", Database: "whispered_thoughts", TLS: tt.mode})

			if tt.wantDSN == "" {
				assert.NotContains(t, dsn, "tls=")
			} else {
				assert.Contains(t, dsn, tt.wantDSN)
			}

			cfg, err := gomysql.ParseDSN(dsn)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCfg, cfg.TLSConfig)
		})
	}
}

// TestThoughtRepo_MySQL runs against a real server when
// WHISPERED_TEST_MYSQL_DSN is set, e.g. "root:pw@tcp(127.0.0.1:3306)/whispered_test?parseTime=true&loc=UTC".
func TestThoughtRepo_MySQL(t *testing.T) {
	dsn := os.Getenv("WHISPERED_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("WHISPERED_TEST_MYSQL_DSN not set")
	}

	ctx := context.Background()
	db, err := OpenDSN(ctx, dsn, 4)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = RunMigrations(db.Pool)
	require.NoError(t, err)

	_, err = db.Pool.ExecContext(ctx, "DELETE FROM thoughts")
	require.NoError(t, err)

	repo := NewThoughtRepo(db, 5*time.Second, slog.Default())
	created := time.Date(2026, 3, 1, 9, 30, 0, 123456000, time.UTC)

	res, err := repo.Create(ctx, model.NewThought{
		Content:      "hello",
		Username:     "alice",
		PasswordHash: "hash",
		CreatedAt:    created,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.RowsAffected)

	err = repo.UpdateContent(ctx, res.ID, "edited", created.Add(time.Hour), func(hash string) error {
		if hash != "hash" {
			return model.ErrUnauthorized
		}
		return nil
	})
	require.NoError(t, err)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "edited", all[0].Content)
	assert.Equal(t, created, all[0].CreatedAt)
	assert.Empty(t, all[0].PasswordHash)

	n, err := repo.Delete(ctx, res.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
