package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ResponseModeJSON, cfg.Service.ResponseMode)
	assert.Equal(t, "https://unavatar.io/instagram", cfg.Avatar.BaseURL)
	assert.Equal(t, "csv", cfg.Export.Format)
	assert.Equal(t, 250*time.Millisecond, cfg.Preview.DebounceInterval)
	assert.Equal(t, 75, cfg.Progress.Ceiling)
	assert.Less(t, cfg.Progress.Ceiling, 100)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IGFOLLOW_BASE_URL", "https://tracker.example.com")
	t.Setenv("IGFOLLOW_RESPONSE_MODE", "binary")
	t.Setenv("IGFOLLOW_CSRF_TOKEN", "env-token")
	t.Setenv("IGFOLLOW_EXPORT_FORMAT", "XLSX")
	t.Setenv("IGFOLLOW_AVATAR_REQUESTS_PER_MINUTE", "30")
	t.Setenv("IGFOLLOW_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "https://tracker.example.com", cfg.Service.BaseURL)
	assert.Equal(t, ResponseModeBinary, cfg.Service.ResponseMode)
	assert.Equal(t, "env-token", cfg.Service.CSRFToken)
	assert.Equal(t, "xlsx", cfg.Export.Format)
	assert.Equal(t, 30, cfg.Avatar.RequestsPerMinute)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
service:
  base_url: https://tracker.example.com
  response_mode: json
export:
  format: xlsx
  directory: /tmp/exports
preview:
  debounce_interval: 300ms
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://tracker.example.com", cfg.Service.BaseURL)
	assert.Equal(t, "xlsx", cfg.Export.Format)
	assert.Equal(t, "/tmp/exports", cfg.Export.Directory)
	assert.Equal(t, 300*time.Millisecond, cfg.Preview.DebounceInterval)
}

func TestLoadFromFileMissingPathIsNotAnError(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.LoadFromFile(""))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"empty base url", func(c *Config) { c.Service.BaseURL = "" }, true},
		{"bad response mode", func(c *Config) { c.Service.ResponseMode = "xml" }, true},
		{"bad export format", func(c *Config) { c.Export.Format = "pdf" }, true},
		{"ceiling at 100", func(c *Config) { c.Progress.Ceiling = 100 }, true},
		{"ceiling below initial", func(c *Config) { c.Progress.Ceiling = 5 }, true},
		{"zero increment", func(c *Config) { c.Progress.IncrementMin = 0 }, true},
		{"max below min increment", func(c *Config) { c.Progress.IncrementMax = 1 }, true},
		{"zero debounce", func(c *Config) { c.Preview.DebounceInterval = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"base-url":      "https://flag.example.com",
		"format":        "xlsx",
		"response-mode": "binary",
	})

	assert.Equal(t, "https://flag.example.com", cfg.Service.BaseURL)
	assert.Equal(t, "xlsx", cfg.Export.Format)
	assert.Equal(t, ResponseModeBinary, cfg.Service.ResponseMode)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Service.BaseURL = "https://saved.example.com"
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "https://saved.example.com", loaded.Service.BaseURL)
}
