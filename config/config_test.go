package config

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
provider: main
dialect: sqlite
dsn: "file:test.db"
isolation: read committed
max_open_conns: 1
stats:
  enabled: true
  slow_threshold: 250ms
log:
  level: debug
  format: json
`

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, t.TempDir(), "rdbms.yaml", sample)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.Provider)
	assert.Equal(t, "sqlite", cfg.Dialect)
	assert.Equal(t, "file:test.db", cfg.DSN)
	assert.Equal(t, 1, cfg.MaxOpenConns)
	assert.True(t, cfg.Stats.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Stats.SlowThreshold)
	assert.Equal(t, path, cfg.Path())

	level, err := cfg.IsolationLevel()
	require.NoError(t, err)
	assert.Equal(t, sql.LevelReadCommitted, level)
	assert.NotNil(t, cfg.Logger())
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rdbms.yaml", sample)
	writeFile(t, dir, ".env", "RDBMS_DSN=file:dotenv.db\nRDBMS_DEBUG=true\nRDBMS_DIALECT=mysql\n")
	t.Setenv("RDBMS_DIALECT", "postgres")
	t.Setenv("RDBMS_STATS_SLOW_THRESHOLD", "1s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file:dotenv.db", cfg.DSN, ".env overrides the file")
	assert.Equal(t, "postgres", cfg.Dialect, "environment overrides .env")
	assert.True(t, cfg.Debug)
	assert.Equal(t, time.Second, cfg.Stats.SlowThreshold)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, dir, "bad.yaml", "provider: ["))
	assert.Error(t, err)

	t.Setenv("RDBMS_DEBUG", "maybe")
	_, err = Load(writeFile(t, dir, "ok.yaml", sample))
	assert.ErrorContains(t, err, "RDBMS_DEBUG")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	assert.ErrorContains(t, err, "dsn is required")

	cfg.DSN = "postgres://localhost/db"
	assert.NoError(t, cfg.Validate())

	cfg.Dialect = "oracle"
	cfg.Isolation = "chaos"
	cfg.Log.Level = "loud"
	err = cfg.Validate()
	assert.ErrorContains(t, err, "unsupported dialect")
	assert.ErrorContains(t, err, "unknown isolation level")
	assert.ErrorContains(t, err, "log level")
}

func TestIsolationLevelDefault(t *testing.T) {
	level, err := (&Config{}).IsolationLevel()
	require.NoError(t, err)
	assert.Equal(t, sql.LevelSerializable, level)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "rdbms.yaml", sample)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloaded atomic.Pointer[Config]
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, nil, func(c *Config) { reloaded.Store(c) })
	}()

	updated := sample + "debug: true\n"
	require.Eventually(t, func() bool {
		if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
			return false
		}
		c := reloaded.Load()
		return c != nil && c.Debug
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchNoPath(t *testing.T) {
	assert.Error(t, Watch(context.Background(), "", nil, func(*Config) {}))
}
