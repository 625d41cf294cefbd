// Package config loads the settings of a relational storage provider.
//
// Settings come from a YAML file, then from a .env file next to it, then
// from the process environment. Later sources win. Environment variables
// use the RDBMS_ prefix:
//
//	RDBMS_PROVIDER               provider ID
//	RDBMS_DIALECT                postgres, mysql, sqlite or sqlserver
//	RDBMS_DSN                    data source name
//	RDBMS_ISOLATION              e.g. serializable, read_committed
//	RDBMS_DEBUG                  log every statement
//	RDBMS_LOG_LEVEL              debug, info, warn or error
//	RDBMS_STATS                  collect statement statistics
//	RDBMS_STATS_SLOW_THRESHOLD   e.g. 200ms
package config

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/syssam/rdbms/dialect"
)

// EnvPrefix prefixes all environment overrides.
const EnvPrefix = "RDBMS_"

// Config holds the provider settings.
type Config struct {
	Provider        string        `yaml:"provider"`
	Dialect         string        `yaml:"dialect"`
	DSN             string        `yaml:"dsn"`
	Isolation       string        `yaml:"isolation"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	Debug           bool          `yaml:"debug"`
	Stats           Stats         `yaml:"stats"`
	Log             Log           `yaml:"log"`

	path string
}

// Stats configures statement statistics.
type Stats struct {
	Enabled       bool          `yaml:"enabled"`
	SlowThreshold time.Duration `yaml:"slow_threshold"`
}

// Log configures the provider logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Provider:  "default",
		Dialect:   dialect.Postgres,
		Isolation: "serializable",
		Stats:     Stats{SlowThreshold: 100 * time.Millisecond},
		Log:       Log{Level: "info", Format: "text"},
	}
}

// Load reads the configuration file at path. An empty path skips the file
// and reads .env from the working directory. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	envFile := ".env"
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.path = path
		envFile = filepath.Join(filepath.Dir(path), ".env")
	}
	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read %s: %w", envFile, err)
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string { return c.path }

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	str("PROVIDER", &c.Provider)
	str("DIALECT", &c.Dialect)
	str("DSN", &c.DSN)
	str("ISOLATION", &c.Isolation)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	for name, dst := range map[string]*bool{"DEBUG": &c.Debug, "STATS": &c.Stats.Enabled} {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("config: %s%s: %w", EnvPrefix, name, err)
			}
			*dst = b
		}
	}
	if v, ok := lookup(EnvPrefix + "STATS_SLOW_THRESHOLD"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sSTATS_SLOW_THRESHOLD: %w", EnvPrefix, err)
		}
		c.Stats.SlowThreshold = d
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error
	if c.Provider == "" {
		errs = append(errs, errors.New("config: provider is required"))
	}
	if _, err := dialect.Get(c.Dialect); err != nil {
		errs = append(errs, fmt.Errorf("config: %w", err))
	}
	if c.DSN == "" {
		errs = append(errs, errors.New("config: dsn is required"))
	}
	if _, err := c.IsolationLevel(); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.MaxOpenConns < 0 {
		errs = append(errs, errors.New("config: max_open_conns must not be negative"))
	}
	return errors.Join(errs...)
}

var isolationLevels = map[string]sql.IsolationLevel{
	"":                 sql.LevelSerializable,
	"default":          sql.LevelDefault,
	"read_uncommitted": sql.LevelReadUncommitted,
	"read_committed":   sql.LevelReadCommitted,
	"write_committed":  sql.LevelWriteCommitted,
	"repeatable_read":  sql.LevelRepeatableRead,
	"snapshot":         sql.LevelSnapshot,
	"serializable":     sql.LevelSerializable,
	"linearizable":     sql.LevelLinearizable,
}

// IsolationLevel returns the configured transaction isolation level.
// Serializable is used when none is set.
func (c *Config) IsolationLevel() (sql.IsolationLevel, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(c.Isolation)), " ", "_")
	level, ok := isolationLevels[key]
	if !ok {
		return 0, fmt.Errorf("config: unknown isolation level %q", c.Isolation)
	}
	return level, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log level: %w", err)
	}
	return level, nil
}

// Logger returns a logger writing to stderr as configured.
func (c *Config) Logger() *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
