package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:8088", cfg.Server.Address())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10.0, cfg.Server.RateLimitRPS)
	assert.Equal(t, int64(2<<20), cfg.Server.MaxBodyBytes)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, 100, cfg.Analysis.MinChars)
	assert.Equal(t, 10, cfg.Analysis.MaxEnhancements)
	assert.GreaterOrEqual(t, cfg.Analysis.Workers, 1)
	assert.Equal(t, 2*time.Second, cfg.Watch.Debounce)
	assert.Equal(t, 100, cfg.Watch.MinChars)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("INTEGRITY_SERVER_PORT", "9001")
	t.Setenv("INTEGRITY_WATCH_DEBOUNCE", "500ms")
	t.Setenv("INTEGRITY_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "integrity.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis:\n  min_chars: 250\n  workers: 3\nstorage:\n  db_path: /tmp/x.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Analysis.MinChars)
	assert.Equal(t, 3, cfg.Analysis.Workers)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.DBPath)
	assert.Equal(t, 10, cfg.Analysis.MaxEnhancements)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"workers", func(c *Config) { c.Analysis.Workers = 0 }, "analysis.workers"},
		{"debounce", func(c *Config) { c.Watch.Debounce = 0 }, "watch.debounce"},
		{"burst", func(c *Config) { c.Server.RateLimitBurst = 0 }, "rate_limit_burst"},
		{"metrics path", func(c *Config) { c.Metrics.Path = "/api/metrics" }, "collides"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDefaultSettingsNested(t *testing.T) {
	s := DefaultSettings()
	watch, ok := s["watch"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2s", watch["debounce"])
}
