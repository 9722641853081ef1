package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"igfollow/pkg/api"
	"igfollow/pkg/auth"
	"igfollow/pkg/config"
	"igfollow/pkg/export"
	"igfollow/pkg/logger"
	"igfollow/pkg/snapshot"
	"igfollow/pkg/storage"
	"igfollow/pkg/store"
	"igfollow/pkg/ui"
	"igfollow/pkg/ui/tui"
)

var (
	// Export command flags
	exportType    string
	exportFormat  string
	exportOutput  string
	exportAccount string
	exportUseTUI  bool
	responseMode  string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <username>",
	Short: "Request a follower list export from the IGFollow service",
	Long: `Request a server-side export of a tracked account's follower or following
list and download the resulting file.

This command requires valid credentials to be configured either through:
  - Stored credentials (use 'igfollow auth login' to store)
  - Environment variables (IGFOLLOW_SESSION_COOKIE and IGFOLLOW_CSRF_TOKEN)
  - Configuration file

The server processes the export asynchronously and answers only on
completion. A simulated progress bar keeps you informed while it works.
Free accounts are limited to ` + fmt.Sprint(snapshot.FreeExportLimit) + ` profiles per export; larger lists are
answered with an upgrade redirect.`,
	Example: `  # Export the followers list as CSV
  igfollow export johndoe

  # Export the following list as XLSX to a specific directory
  igfollow export johndoe --type following --format xlsx --output ./exports

  # Use a specific stored account
  igfollow export johndoe --account myaccount

  # Interactive progress UI
  igfollow export johndoe --tui`,
	Args: cobra.ExactArgs(1),
	Run:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportType, "type", "t", "followers", "snapshot type (followers, following)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "export format (csv, xlsx)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output directory for downloaded exports")
	exportCmd.Flags().StringVarP(&exportAccount, "account", "a", "", "use specific stored account")
	exportCmd.Flags().BoolVar(&exportUseTUI, "tui", false, "use interactive terminal UI with real-time progress")
	exportCmd.Flags().StringVar(&responseMode, "response-mode", "", "server response contract (json, binary)")
}

func runExport(cmd *cobra.Command, args []string) {
	username := snapshot.NormalizeUsername(args[0])

	flags := make(map[string]interface{})
	if exportFormat != "" {
		flags["format"] = exportFormat
	}
	if exportOutput != "" {
		flags["output"] = exportOutput
	}
	if responseMode != "" {
		flags["response-mode"] = responseMode
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()

	account := resolveAccount(cfg, exportAccount)
	if cfg.Service.SessionCookie == "" {
		log.Error("No credentials found")
		ui.PrintError("No IGFollow credentials found", "")
		fmt.Println("\nTo store credentials securely, run:")
		fmt.Println("  igfollow auth login")
		fmt.Println("\nFor backward compatibility, you can also set environment variables:")
		fmt.Println("  export IGFOLLOW_SESSION_COOKIE=your_session_cookie")
		fmt.Println("  export IGFOLLOW_CSRF_TOKEN=your_csrf_token")
		os.Exit(1)
	}
	if account == nil || account.AccountID == 0 {
		ui.PrintError("No tracked account ID configured", "Run 'igfollow auth login' and supply the account ID")
		os.Exit(1)
	}

	snapshotType, err := snapshot.ValidateType(exportType)
	if err != nil {
		ui.PrintError("Invalid snapshot type", err.Error())
		os.Exit(1)
	}

	client := api.NewClient(&cfg.Service, log)

	downloads, err := storage.NewManager(cfg.Export.Directory)
	if err != nil {
		ui.PrintError("Failed to prepare export directory", err.Error())
		os.Exit(1)
	}

	// Preflight against the latest local snapshot when one exists
	snapStore, err := store.New(cfg.Store.DataDirectory, log)
	if err == nil {
		if latest, err := snapStore.Latest(username, snapshotType); err == nil {
			if err := export.Preflight(len(latest.Entries)); err != nil {
				ui.PrintWarning("Export exceeds the free limit", err.Error())
				fmt.Printf("The latest local snapshot has %d profiles; the server will redirect to the upgrade page.\n\n", len(latest.Entries))
			}
		}
	}

	log.WithFields(map[string]interface{}{
		"username": username,
		"type":     snapshotType,
		"format":   cfg.Export.Format,
	}).Info("Starting export request")

	if exportUseTUI {
		runExportTUI(cfg, client, downloads, account, snapshotType, log)
		return
	}

	panel := ui.NewTerminalPanel(os.Stdout)
	controller := export.NewController(cfg, export.Deps{
		Client:    client,
		Downloads: downloads,
		Panel:     panel,
		Navigator: ui.PrintedNavigator{Out: os.Stdout},
		Logger:    log,
	})

	result, err := controller.Submit(context.Background(), account.AccountID, snapshotType, cfg.Export.Format)
	if err != nil {
		log.WithError(err).Error("Export failed")
		fmt.Println()
		ui.PrintError("EXPORT FAILED", err.Error())
		os.Exit(1)
	}

	fmt.Println()
	switch {
	case result.SavedPath != "":
		ui.PrintSuccess("Export saved: " + result.SavedPath)
	case result.RedirectURL != "":
		ui.PrintWarning("Export requires an upgrade", "")
	}
}

func runExportTUI(cfg *config.Config, client *api.Client, downloads *storage.Manager, account *auth.Account, snapshotType string, log logger.Logger) {
	program, panel := tui.NewExportProgram()

	controller := export.NewController(cfg, export.Deps{
		Client:    client,
		Downloads: downloads,
		Panel:     panel,
		Navigator: ui.PrintedNavigator{Out: os.Stderr},
		Logger:    log,
	})

	done := make(chan error, 1)
	go func() {
		_, err := controller.Submit(context.Background(), account.AccountID, snapshotType, cfg.Export.Format)
		panel.Done()
		done <- err
	}()

	if err := tui.RunExport(program); err != nil {
		log.WithError(err).Error("TUI failed")
		os.Exit(1)
	}

	if err := <-done; err != nil {
		log.WithError(err).Error("Export failed")
		ui.PrintError("EXPORT FAILED", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Export completed")
}

// resolveAccount fills service credentials from the credential manager when
// the config does not already carry them
func resolveAccount(cfg *config.Config, name string) *auth.Account {
	manager, err := auth.NewManager()
	if err != nil {
		return nil
	}

	var account *auth.Account
	if name != "" {
		account, err = manager.Retrieve(name)
		if err != nil {
			ui.PrintError("Account not found", name)
			ui.PrintInfo("Available accounts", "Use 'igfollow auth list' to see stored accounts")
			os.Exit(1)
		}
	} else if cfg.Service.SessionCookie != "" && cfg.Service.CSRFToken != "" {
		// Credentials already supplied via config or environment
		return &auth.Account{
			Username:      "",
			SessionCookie: cfg.Service.SessionCookie,
			CSRFToken:     cfg.Service.CSRFToken,
			AccountID:     accountIDFromEnv(),
		}
	} else {
		account, err = manager.RetrieveDefault()
		if err != nil {
			return nil
		}
	}

	if account != nil {
		cfg.Service.SessionCookie = account.SessionCookie
		cfg.Service.CSRFToken = account.CSRFToken
		if account.UserAgent != "" {
			cfg.Service.UserAgent = account.UserAgent
		}
		if account.Username != "" {
			ui.PrintInfo("Using account", account.Username)
		}
	}
	return account
}

func accountIDFromEnv() int64 {
	raw := strings.TrimSpace(os.Getenv("IGFOLLOW_ACCOUNT_ID"))
	if raw == "" {
		return 0
	}
	var id int64
	fmt.Sscanf(raw, "%d", &id)
	return id
}
