package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"igfollow/pkg/config"
	"igfollow/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	baseURL    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igfollow",
	Short: "Follower snapshot tracking and export client for the IGFollow service",
	Long: `IGFollow is a command-line client for the IGFollow follower tracking service.

Features:
  - Capture follower/following snapshots from standard data exports
  - Diff consecutive snapshots to see who followed and unfollowed
  - Request server-side exports with live progress feedback
  - Live profile preview with avatar lookup
  - Secure credential storage using the system keychain

For more information and examples, visit: https://github.com/yourusername/igfollow`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" && cmd.Name() != "preview" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.config/igfollow/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "IGFollow service base URL")

	// Version template
	rootCmd.SetVersionTemplate(`IGFollow {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration with the global flags applied
func loadConfig(extra map[string]interface{}) (*config.Config, error) {
	flags := make(map[string]interface{})
	if baseURL != "" {
		flags["base-url"] = baseURL
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	for k, v := range extra {
		flags[k] = v
	}

	return config.Load(configFile, flags)
}
