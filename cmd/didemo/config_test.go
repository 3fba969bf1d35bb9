package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func Test_LoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("", "")
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.HTTP.Addr)
		assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Log.Pretty)
		assert.Equal(t, 5*time.Second, cfg.Job.Interval)
	})

	t.Run("yaml file", func(t *testing.T) {
		path := writeFile(t, "config.yml", `
http:
  addr: ":9000"
log:
  level: debug
  pretty: true
job:
  interval: 1m
`)

		cfg, err := LoadConfig(path, "")
		require.NoError(t, err)

		assert.Equal(t, ":9000", cfg.HTTP.Addr)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.True(t, cfg.Log.Pretty)
		assert.Equal(t, time.Minute, cfg.Job.Interval)
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := writeFile(t, "config.yml", "http:\n  addr: \":9000\"\n")
		t.Setenv("DIDEMO_HTTP_ADDR", ":9100")
		t.Setenv("DIDEMO_JOB_INTERVAL", "2s")

		cfg, err := LoadConfig(path, "")
		require.NoError(t, err)

		assert.Equal(t, ":9100", cfg.HTTP.Addr)
		assert.Equal(t, 2*time.Second, cfg.Job.Interval)
	})

	t.Run("env file", func(t *testing.T) {
		path := writeFile(t, ".env", "DIDEMO_LOG_LEVEL=warn\n")
		// Registered so the variable is restored after the test.
		t.Setenv("DIDEMO_LOG_LEVEL", "")
		require.NoError(t, os.Unsetenv("DIDEMO_LOG_LEVEL"))

		cfg, err := LoadConfig("", path)
		require.NoError(t, err)

		assert.Equal(t, "warn", cfg.Log.Level)
	})

	t.Run("missing env file is ignored", func(t *testing.T) {
		_, err := LoadConfig("", filepath.Join(t.TempDir(), ".env"))
		assert.NoError(t, err)
	})

	t.Run("missing config file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"), "")
		assert.ErrorContains(t, err, "read config file")
	})

	t.Run("invalid interval", func(t *testing.T) {
		t.Setenv("DIDEMO_JOB_INTERVAL", "0s")

		_, err := LoadConfig("", "")
		assert.EqualError(t, err, "invalid job.interval 0s: must be positive")
	})
}

func Test_NewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	_, err = NewLogger(LogConfig{Level: "loud"})
	assert.ErrorContains(t, err, "parse log level")
}
