package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8082, cfg.Port)
	assert.Equal(t, "127.0.0.1:8082", cfg.Addr())
	assert.Equal(t, 24, cfg.Search.Cap)
	assert.Equal(t, 5, cfg.Search.HistoryCap)
	assert.Equal(t, 300*time.Millisecond, cfg.Search.LiveDebounce)
	assert.Equal(t, "none", cfg.Weight.Store)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
log_level: debug
search:
  sort_order: line
  cap: 50
  live_debounce: 150ms
weight:
  store: sqlite
  db_path: /tmp/w.db
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("ALLOW_ORIGINS", "http://a,http://b")
	t.Setenv("DEFAULT_VAT", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port, "env wins over the file")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "line", cfg.Search.SortOrder)
	assert.Equal(t, 50, cfg.Search.Cap)
	assert.Equal(t, 5, cfg.Search.HistoryCap, "unset keys keep defaults")
	assert.Equal(t, 150*time.Millisecond, cfg.Search.LiveDebounce)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.AllowOrigins)
	assert.Equal(t, 5.0, cfg.Search.DefaultVat)
	assert.Equal(t, "sqlite", cfg.Weight.Store)
	assert.Equal(t, "/tmp/w.db", cfg.Weight.DBPath)
}

func TestLoadReportsBadEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("PORT", "http")
	t.Setenv("LIVE_DEBOUNCE", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "LIVE_DEBOUNCE")
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	bad := Default()
	bad.Port = 0
	bad.Search.SortOrder = "price"
	bad.Search.DefaultVat = 13
	bad.Weight.Store = "postgres"
	bad.Weight.PushTimeout = 0
	err := bad.Validate()
	require.Error(t, err)
	for _, want := range []string{"port", "sort order", "VAT", "WEIGHT_DB_DSN", "timeout"} {
		assert.Contains(t, err.Error(), want)
	}

	for store, field := range map[string]string{"sheets": "SHEETS_ID", "redis": "REDIS_ADDR", "mongo": "weight store"} {
		c := Default()
		c.Weight.Store = store
		err := c.Validate()
		require.Error(t, err, store)
		assert.Contains(t, err.Error(), field)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogFile = ""
	cfg.LogLevel = "warn"

	l := newLogger(cfg, &buf)
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	cfg.LogLevel = "loud"
	newLogger(cfg, &buf)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNewLoggerWritesFile(t *testing.T) {
	cfg := Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "logs", "app.log")
	l := newLogger(cfg, &bytes.Buffer{})
	l.Error().Msg("to file")

	b, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "to file")
}
