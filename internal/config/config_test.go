package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every WHISPERED_ env var that Load() reads.
var allConfigKeys = []string{
	"WHISPERED_LISTEN_ADDR",
	"WHISPERED_DB_DRIVER",
	"WHISPERED_DB_PATH",
	"WHISPERED_MYSQL_ADDR",
	"WHISPERED_MYSQL_USER",
	"WHISPERED_MYSQL_PASSWORD",
	"WHISPERED_MYSQL_DATABASE",
	"WHISPERED_MYSQL_TLS",
	"WHISPERED_ADMIN_PASSWORD",
	"WHISPERED_POOL_SIZE",
	"WHISPERED_POOL_WAIT_TIMEOUT",
	"WHISPERED_STRICT_VALIDATION",
	"WHISPERED_ALLOWED_ORIGIN",
	"WHISPERED_HASH_MEMORY_KIB",
}

// isolateConfigEnv saves and unsets all WHISPERED_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("WHISPERED_ADMIN_PASSWORD", "hunter2")
	t.Setenv("WHISPERED_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("WHISPERED_DB_DRIVER", "mysql")
	t.Setenv("WHISPERED_MYSQL_ADDR", "db:3306")
	t.Setenv("WHISPERED_MYSQL_USER", "letters")
	t.Setenv("WHISPERED_MYSQL_PASSWORD", "pw")
	t.Setenv("WHISPERED_MYSQL_DATABASE", "board")
	t.Setenv("WHISPERED_MYSQL_TLS", "true")
	t.Setenv("WHISPERED_POOL_SIZE", "4")
	t.Setenv("WHISPERED_POOL_WAIT_TIMEOUT", "250ms")
	t.Setenv("WHISPERED_STRICT_VALIDATION", "true")
	t.Setenv("WHISPERED_ALLOWED_ORIGIN", "https://letters.example")
	t.Setenv("WHISPERED_HASH_MEMORY_KIB", "19456")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "hunter2", cfg.AdminPassword)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, DriverMySQL, cfg.DBDriver)
	assert.Equal(t, "db:3306", cfg.MySQLAddr)
	assert.Equal(t, "letters", cfg.MySQLUser)
	assert.Equal(t, "pw", cfg.MySQLPassword)
	assert.Equal(t, "board", cfg.MySQLDatabase)
	assert.Equal(t, "true", cfg.MySQLTLS)
	assert.Equal(t, 4, cfg.PoolSize)
	assert.Equal(t, 250*time.Millisecond, cfg.PoolWaitTimeout)
	assert.True(t, cfg.StrictValidation)
	assert.Equal(t, "https://letters.example", cfg.AllowedOrigin)
	assert.Equal(t, uint32(19456), cfg.HashMemoryKiB)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("WHISPERED_ADMIN_PASSWORD", "hunter2")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "whisperedthoughts.db", cfg.DBPath)
	assert.Equal(t, "127.0.0.1:3306", cfg.MySQLAddr)
	assert.Equal(t, "root", cfg.MySQLUser)
	assert.Equal(t, "", cfg.MySQLPassword)
	assert.Equal(t, "whispered_thoughts", cfg.MySQLDatabase)
	assert.Equal(t, "false", cfg.MySQLTLS)
	assert.Equal(t, 10, cfg.PoolSize)
	assert.Equal(t, 5*time.Second, cfg.PoolWaitTimeout)
	assert.False(t, cfg.StrictValidation)
	assert.Equal(t, "*", cfg.AllowedOrigin)
	assert.Equal(t, uint32(64*1024), cfg.HashMemoryKiB)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing admin password",
			env:     map[string]string{},
			wantErr: "WHISPERED_ADMIN_PASSWORD",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"WHISPERED_ADMIN_PASSWORD": "hunter2", "WHISPERED_DB_DRIVER": "postgres"},
			wantErr: "WHISPERED_DB_DRIVER",
		},
		{
			name:    "unknown mysql tls mode",
			env:     map[string]string{"WHISPERED_ADMIN_PASSWORD": "hunter2", "WHISPERED_MYSQL_TLS": "required"},
			wantErr: "WHISPERED_MYSQL_TLS",
		},
		{
			name:    "zero pool size",
			env:     map[string]string{"WHISPERED_ADMIN_PASSWORD": "hunter2", "WHISPERED_POOL_SIZE": "0"},
			wantErr: "WHISPERED_POOL_SIZE",
		},
		{
			name:    "negative wait timeout",
			env:     map[string]string{"WHISPERED_ADMIN_PASSWORD": "hunter2", "WHISPERED_POOL_WAIT_TIMEOUT": "-1s"},
			wantErr: "WHISPERED_POOL_WAIT_TIMEOUT",
		},
		{
			name:    "tiny hash memory",
			env:     map[string]string{"WHISPERED_ADMIN_PASSWORD": "hunter2", "WHISPERED_HASH_MEMORY_KIB": "4"},
			wantErr: "WHISPERED_HASH_MEMORY_KIB",
		},
		{
			name:    "unparseable duration",
			env:     map[string]string{"WHISPERED_ADMIN_PASSWORD": "hunter2", "WHISPERED_POOL_WAIT_TIMEOUT": "soon"},
			wantErr: "parse env",
		},
		{
			name:    "unparseable pool size",
			env:     map[string]string{"WHISPERED_ADMIN_PASSWORD": "hunter2", "WHISPERED_POOL_SIZE": "ten"},
			wantErr: "parse env",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadServer(t *testing.T) {
	isolateConfigEnv(t)

	srv, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", srv.ListenAddr)

	t.Setenv("WHISPERED_LISTEN_ADDR", "0.0.0.0:9090")

	srv, err = LoadServer()
	require.NoError(t, err, "the admin password is not needed")
	assert.Equal(t, "0.0.0.0:9090", srv.ListenAddr)
}

func TestServer_ProbeAddr(t *testing.T) {
	tests := []struct {
		listen string
		want   string
	}{
		{listen: "127.0.0.1:8080", want: "127.0.0.1:8080"},
		{listen: "0.0.0.0:9090", want: "127.0.0.1:9090"},
		{listen: ":8081", want: "127.0.0.1:8081"},
		{listen: "[::]:8082", want: "127.0.0.1:8082"},
		{listen: "10.0.0.5:8080", want: "10.0.0.5:8080"},
		{listen: "[::1]:8080", want: "[::1]:8080"},
		{listen: "", want: "127.0.0.1:8080"},
		{listen: "not-an-addr", want: "127.0.0.1:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.listen, func(t *testing.T) {
			assert.Equal(t, tt.want, Server{ListenAddr: tt.listen}.ProbeAddr())
		})
	}
}
