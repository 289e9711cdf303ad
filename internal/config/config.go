// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/caarlos0/env/v11"
)

// Supported values of WHISPERED_DB_DRIVER.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// defaultListenAddr is the bind address when WHISPERED_LISTEN_ADDR is unset.
const defaultListenAddr = "127.0.0.1:8080"

// Server holds the settings shared by the server and the container healthcheck.
type Server struct {
	ListenAddr string `env:"WHISPERED_LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
}

// ProbeAddr returns the address a local client should dial to reach a server
// bound to ListenAddr. Bind-all hosts become loopback and an unparseable
// address falls back to the default.
func (s Server) ProbeAddr() string {
	host, port, err := net.SplitHostPort(s.ListenAddr)
	if err != nil {
		return defaultListenAddr
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}

// LoadServer reads only the Server settings. It does not require the
// secrets Load insists on.
func LoadServer() (*Server, error) {
	var srv Server
	if err := env.Parse(&srv); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &srv, nil
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	Server

	DBDriver string `env:"WHISPERED_DB_DRIVER" envDefault:"sqlite"`
	DBPath   string `env:"WHISPERED_DB_PATH"   envDefault:"whisperedthoughts.db"`

	MySQLAddr     string `env:"WHISPERED_MYSQL_ADDR"     envDefault:"127.0.0.1:3306"`
	MySQLUser     string `env:"WHISPERED_MYSQL_USER"     envDefault:"root"`
	MySQLPassword string `env:"WHISPERED_MYSQL_PASSWORD"`
	MySQLDatabase string `env:"WHISPERED_MYSQL_DATABASE" envDefault:"whispered_thoughts"`
	MySQLTLS      string `env:"WHISPERED_MYSQL_TLS"      envDefault:"false"`

	// AdminPassword deletes any thought. Never logged.
	AdminPassword string `env:"WHISPERED_ADMIN_PASSWORD"`

	PoolSize        int           `env:"WHISPERED_POOL_SIZE"         envDefault:"10"`
	PoolWaitTimeout time.Duration `env:"WHISPERED_POOL_WAIT_TIMEOUT" envDefault:"5s"`

	StrictValidation bool   `env:"WHISPERED_STRICT_VALIDATION" envDefault:"false"`
	AllowedOrigin    string `env:"WHISPERED_ALLOWED_ORIGIN"    envDefault:"*"`
	HashMemoryKiB    uint32 `env:"WHISPERED_HASH_MEMORY_KIB"   envDefault:"65536"`
}

// Load reads configuration from environment variables and returns a validated Config.
// WHISPERED_ADMIN_PASSWORD is required; everything else has a default.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.AdminPassword == "" {
		return errors.New("WHISPERED_ADMIN_PASSWORD is required")
	}
	if c.DBDriver != DriverSQLite && c.DBDriver != DriverMySQL {
		return fmt.Errorf("WHISPERED_DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMySQL, c.DBDriver)
	}
	if c.DBDriver == DriverSQLite && c.DBPath == "" {
		return errors.New("WHISPERED_DB_PATH must not be empty")
	}
	switch c.MySQLTLS {
	case "false", "true", "skip-verify", "preferred":
	default:
		return fmt.Errorf("WHISPERED_MYSQL_TLS must be false, true, skip-verify or preferred, got %q", c.MySQLTLS)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("WHISPERED_POOL_SIZE must be positive, got %d", c.PoolSize)
	}
	if c.PoolWaitTimeout <= 0 {
		return fmt.Errorf("WHISPERED_POOL_WAIT_TIMEOUT must be positive, got %s", c.PoolWaitTimeout)
	}
	if c.HashMemoryKiB < 8 {
		return fmt.Errorf("WHISPERED_HASH_MEMORY_KIB must be at least 8, got %d", c.HashMemoryKiB)
	}
	return nil
}
