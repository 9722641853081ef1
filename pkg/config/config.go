package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Response modes for the export endpoint. The service historically spoke a
// raw binary contract and later a JSON envelope; exactly one is active.
const (
	ResponseModeJSON   = "json"
	ResponseModeBinary = "binary"
)

// Config holds all configuration options for the igfollow client
type Config struct {
	// IGFollow web service connection
	Service ServiceConfig `yaml:"service" json:"service"`

	// Third-party avatar host
	Avatar AvatarConfig `yaml:"avatar" json:"avatar"`

	// Export behavior
	Export ExportConfig `yaml:"export" json:"export"`

	// Simulated progress ticker
	Progress ProgressConfig `yaml:"progress" json:"progress"`

	// Profile preview widget
	Preview PreviewConfig `yaml:"preview" json:"preview"`

	// Local snapshot store
	Store StoreConfig `yaml:"store" json:"store"`

	// Retry behavior for transient failures
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServiceConfig holds the IGFollow server connection settings
type ServiceConfig struct {
	BaseURL       string        `yaml:"base_url" json:"base_url"`
	ResponseMode  string        `yaml:"response_mode" json:"response_mode"`
	SessionCookie string        `yaml:"session_cookie" json:"session_cookie"`
	CSRFToken     string        `yaml:"csrf_token" json:"csrf_token"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
}

// AvatarConfig holds settings for the third-party avatar host
type AvatarConfig struct {
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	CacheDirectory    string        `yaml:"cache_directory" json:"cache_directory"`
	PrefetchWorkers   int           `yaml:"prefetch_workers" json:"prefetch_workers"`
}

// ExportConfig holds export download settings
type ExportConfig struct {
	Format          string        `yaml:"format" json:"format"`
	Directory       string        `yaml:"directory" json:"directory"`
	HideDelay       time.Duration `yaml:"hide_delay" json:"hide_delay"`
	ErrorResetDelay time.Duration `yaml:"error_reset_delay" json:"error_reset_delay"`
}

// ProgressConfig drives the simulated progress ticker. The ceiling reserves
// the top of the bar for real completion.
type ProgressConfig struct {
	InitialPercent   int           `yaml:"initial_percent" json:"initial_percent"`
	TickInterval     time.Duration `yaml:"tick_interval" json:"tick_interval"`
	IncrementMin     int           `yaml:"increment_min" json:"increment_min"`
	IncrementMax     int           `yaml:"increment_max" json:"increment_max"`
	Ceiling          int           `yaml:"ceiling" json:"ceiling"`
	PackagingPercent int           `yaml:"packaging_percent" json:"packaging_percent"`
}

// PreviewConfig holds profile preview settings
type PreviewConfig struct {
	DebounceInterval time.Duration `yaml:"debounce_interval" json:"debounce_interval"`
}

// StoreConfig holds local snapshot store settings
type StoreConfig struct {
	// DataDirectory overrides the platform data directory when set
	DataDirectory string `yaml:"data_directory" json:"data_directory"`
}

// RetryConfig holds retry behavior for transient failures
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier  float64       `yaml:"multiplier" json:"multiplier"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:      "http://localhost:5000",
			ResponseMode: ResponseModeJSON,
			UserAgent:    "igfollow-client/1.0",
			Timeout:      30 * time.Second,
		},
		Avatar: AvatarConfig{
			BaseURL:           "https://unavatar.io/instagram",
			Timeout:           10 * time.Second,
			RequestsPerMinute: 60,
			CacheDirectory:    "./avatars",
			PrefetchWorkers:   3,
		},
		Export: ExportConfig{
			Format:          "csv",
			Directory:       "./exports",
			HideDelay:       1500 * time.Millisecond,
			ErrorResetDelay: 4 * time.Second,
		},
		Progress: ProgressConfig{
			InitialPercent:   8,
			TickInterval:     400 * time.Millisecond,
			IncrementMin:     3,
			IncrementMax:     9,
			Ceiling:          75,
			PackagingPercent: 92,
		},
		Preview: PreviewConfig{
			DebounceInterval: 250 * time.Millisecond,
		},
		Store: StoreConfig{},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    10 * time.Second,
			Multiplier:  2.0,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("IGFOLLOW_BASE_URL"); baseURL != "" {
		c.Service.BaseURL = baseURL
	}
	if mode := os.Getenv("IGFOLLOW_RESPONSE_MODE"); mode != "" {
		c.Service.ResponseMode = strings.ToLower(mode)
	}
	if cookie := os.Getenv("IGFOLLOW_SESSION_COOKIE"); cookie != "" {
		c.Service.SessionCookie = cookie
	}
	if token := os.Getenv("IGFOLLOW_CSRF_TOKEN"); token != "" {
		c.Service.CSRFToken = token
	}
	if avatarURL := os.Getenv("IGFOLLOW_AVATAR_BASE_URL"); avatarURL != "" {
		c.Avatar.BaseURL = avatarURL
	}
	if format := os.Getenv("IGFOLLOW_EXPORT_FORMAT"); format != "" {
		c.Export.Format = strings.ToLower(format)
	}
	if dir := os.Getenv("IGFOLLOW_EXPORT_DIR"); dir != "" {
		c.Export.Directory = dir
	}
	if dir := os.Getenv("IGFOLLOW_DATA_DIR"); dir != "" {
		c.Store.DataDirectory = dir
	}
	if rpm := os.Getenv("IGFOLLOW_AVATAR_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.Avatar.RequestsPerMinute = val
		}
	}
	if logLevel := os.Getenv("IGFOLLOW_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".igfollow.yaml",
		".igfollow.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igfollow", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "igfollow", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".igfollow.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Service.BaseURL == "" {
		errs = append(errs, errors.New("service base URL is required"))
	} else if _, err := url.Parse(c.Service.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("invalid service base URL: %w", err))
	}
	switch c.Service.ResponseMode {
	case ResponseModeJSON, ResponseModeBinary:
	default:
		errs = append(errs, errors.New("response mode must be 'json' or 'binary'"))
	}

	if c.Avatar.BaseURL == "" {
		errs = append(errs, errors.New("avatar base URL is required"))
	}
	if c.Avatar.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("avatar requests per minute must be positive"))
	}
	if c.Avatar.PrefetchWorkers <= 0 {
		errs = append(errs, errors.New("avatar prefetch workers must be positive"))
	}

	switch c.Export.Format {
	case "csv", "xlsx":
	default:
		errs = append(errs, errors.New("export format must be 'csv' or 'xlsx'"))
	}
	if c.Export.Directory == "" {
		errs = append(errs, errors.New("export directory is required"))
	}

	if c.Progress.InitialPercent < 0 || c.Progress.InitialPercent > 100 {
		errs = append(errs, errors.New("initial progress must be within [0, 100]"))
	}
	if c.Progress.Ceiling <= c.Progress.InitialPercent || c.Progress.Ceiling >= 100 {
		errs = append(errs, errors.New("progress ceiling must be above the initial value and below 100"))
	}
	if c.Progress.PackagingPercent < c.Progress.Ceiling || c.Progress.PackagingPercent > 100 {
		errs = append(errs, errors.New("packaging progress must be between the ceiling and 100"))
	}
	if c.Progress.IncrementMin <= 0 || c.Progress.IncrementMax < c.Progress.IncrementMin {
		errs = append(errs, errors.New("progress increments must satisfy 0 < min <= max"))
	}
	if c.Progress.TickInterval <= 0 {
		errs = append(errs, errors.New("progress tick interval must be positive"))
	}

	if c.Preview.DebounceInterval <= 0 {
		errs = append(errs, errors.New("preview debounce interval must be positive"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("retry max attempts cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flag values into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.Service.BaseURL = baseURL
	}
	if mode, ok := flags["response-mode"].(string); ok && mode != "" {
		c.Service.ResponseMode = strings.ToLower(mode)
	}
	if token, ok := flags["csrf-token"].(string); ok && token != "" {
		c.Service.CSRFToken = token
	}
	if cookie, ok := flags["session-cookie"].(string); ok && cookie != "" {
		c.Service.SessionCookie = cookie
	}
	if format, ok := flags["format"].(string); ok && format != "" {
		c.Export.Format = strings.ToLower(format)
	}
	if dir, ok := flags["output"].(string); ok && dir != "" {
		c.Export.Directory = dir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment variables > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igfollow.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
