// Package config loads go-directory settings from the environment and layers
// host overrides on top of them.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-directory/pkg/types"
)

// Backend names a state store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
	BackendBadger Backend = "badger"
)

// Config is the process level configuration read from DIRECTORY_* variables.
type Config struct {
	Backend            Backend `env:"DIRECTORY_BACKEND"              envDefault:"memory"`
	SQLiteDSN          string  `env:"DIRECTORY_SQLITE_DSN"           envDefault:"file:directory.db?cache=shared"`
	BadgerPath         string  `env:"DIRECTORY_BADGER_PATH"          envDefault:"directory-data"`
	MaxUsernameLength  uint32  `env:"DIRECTORY_MAX_USERNAME_LENGTH"`
	MaxBioLength       uint32  `env:"DIRECTORY_MAX_BIO_LENGTH"`
	StatsUpdateEnabled bool    `env:"DIRECTORY_STATS_UPDATE_ENABLED" envDefault:"true"`
	LogLevel           string  `env:"DIRECTORY_LOG_LEVEL"            envDefault:"info"`
	// ActivityOperators lists actor types that may read every identity's feed.
	ActivityOperators []string      `env:"DIRECTORY_ACTIVITY_OPERATORS" envSeparator:","`
	SQLDebug          bool          `env:"DIRECTORY_SQL_DEBUG"          envDefault:"false"`
	SQLPingTimeout    time.Duration `env:"DIRECTORY_SQL_PING_TIMEOUT"   envDefault:"5s"`
}

// LoadFromEnv parses the process environment into a validated Config.
func LoadFromEnv() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks the backend selection and its location.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if strings.TrimSpace(c.SQLiteDSN) == "" {
			return fmt.Errorf("config: DIRECTORY_SQLITE_DSN required for %s backend", c.Backend)
		}
	case BackendBadger:
		if strings.TrimSpace(c.BadgerPath) == "" {
			return fmt.Errorf("config: DIRECTORY_BADGER_PATH required for %s backend", c.Backend)
		}
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	return nil
}

// Limits returns the limits set through the environment. Unset values are
// zero and are filled in by ResolveLimits.
func (c Config) Limits() types.Limits {
	return types.Limits{
		MaxUsernameLength: c.MaxUsernameLength,
		MaxBioLength:      c.MaxBioLength,
	}
}

// Persistence returns the go-persistence-bun settings for the SQLite backend.
func (c Config) Persistence() PersistenceConfig {
	return PersistenceConfig{
		Debug:          c.SQLDebug,
		Driver:         "sqlite3",
		Server:         c.SQLiteDSN,
		PingTimeout:    c.SQLPingTimeout,
		OtelIdentifier: "go-directory",
	}
}

// PersistenceConfig implements persistence.Config.
type PersistenceConfig struct {
	Debug          bool
	Driver         string
	Server         string
	PingTimeout    time.Duration
	OtelIdentifier string
}

func (c PersistenceConfig) GetDebug() bool                { return c.Debug }
func (c PersistenceConfig) GetDriver() string             { return c.Driver }
func (c PersistenceConfig) GetServer() string             { return c.Server }
func (c PersistenceConfig) GetPingTimeout() time.Duration { return c.PingTimeout }
func (c PersistenceConfig) GetOtelIdentifier() string     { return c.OtelIdentifier }
