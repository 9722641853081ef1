package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"igfollow/pkg/config"
	"igfollow/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage IGFollow configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IGFOLLOW_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'igfollow.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources.

Sensitive values like credentials will be masked for security.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Run:   runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "igfollow.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# IGFollow Configuration File
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with IGFOLLOW_
# For example: IGFOLLOW_SESSION_COOKIE, IGFOLLOW_CSRF_TOKEN

# IGFollow web service connection
service:
  # Service base URL
  base_url: "http://localhost:5000"

  # Server response contract for the export endpoint: json or binary
  response_mode: "json"

  # Session cookie and CSRF token
  # Prefer 'igfollow auth login' over putting these in a file
  session_cookie: ""
  csrf_token: ""

  # User agent string (optional)
  user_agent: ""

  # Request timeout
  timeout: 30s

# Third-party avatar host
avatar:
  base_url: "https://unavatar.io/instagram"
  timeout: 10s
  requests_per_minute: 60
  cache_directory: "./avatars"
  prefetch_workers: 3

# Export behavior
export:
  # Export format: csv or xlsx
  format: "csv"

  # Directory for downloaded export files
  directory: "./exports"

  # How long the progress panel lingers after completion
  hide_delay: 1500ms

  # How long an error message is shown before the panel resets
  error_reset_delay: 4s

# Simulated progress ticker
progress:
  initial_percent: 8
  tick_interval: 400ms
  increment_min: 3
  increment_max: 9
  ceiling: 75
  packaging_percent: 92

# Profile preview widget
preview:
  debounce_interval: 250ms

# Local snapshot store
store:
  # Override the platform data directory (optional)
  data_directory: ""

# Retry behavior for transient failures
retry:
  max_attempts: 3
  base_delay: 500ms
  max_delay: 10s
  multiplier: 2.0

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional, stderr when empty)
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Run 'igfollow auth login' to store your credentials")
	fmt.Println("2. Run 'igfollow config validate' to check the configuration")
	fmt.Println("3. Request an export with 'igfollow export <username>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Mask sensitive values for display
	displayCfg := *cfg
	displayCfg.Service.SessionCookie = maskValue(displayCfg.Service.SessionCookie)
	displayCfg.Service.CSRFToken = maskValue(displayCfg.Service.CSRFToken)

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (IGFOLLOW_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		possiblePaths := []string{
			"igfollow.yaml",
			"igfollow.yml",
			".igfollow.yaml",
			".igfollow.yml",
			filepath.Join(os.Getenv("HOME"), ".igfollow.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "igfollow", "config.yaml"),
		}

		for _, p := range possiblePaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}

		if path == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	warnings := []string{}
	if cfg.Service.SessionCookie == "" {
		warnings = append(warnings, "session cookie not configured (use 'igfollow auth login')")
	}
	if cfg.Service.CSRFToken == "" {
		warnings = append(warnings, "CSRF token not configured (use 'igfollow auth login')")
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Service URL: %s\n", cfg.Service.BaseURL)
	fmt.Printf("  Response mode: %s\n", cfg.Service.ResponseMode)
	fmt.Printf("  Export format: %s\n", cfg.Export.Format)
	fmt.Printf("  Export directory: %s\n", cfg.Export.Directory)
	fmt.Printf("  Avatar rate limit: %d requests/minute\n", cfg.Avatar.RequestsPerMinute)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}

func maskValue(s string) string {
	if s == "" {
		return ""
	}
	if len(s) > 8 {
		return s[:4] + "..." + s[len(s)-4:]
	}
	return "***"
}
