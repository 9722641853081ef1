package main

import (
	"os"

	"github.com/spf13/cobra"
	"igfollow/pkg/logger"
	"igfollow/pkg/preview"
	"igfollow/pkg/ui"
	"igfollow/pkg/ui/tui"
)

// previewCmd represents the preview command
var previewCmd = &cobra.Command{
	Use:   "preview [username]",
	Short: "Interactive profile preview with avatar lookup",
	Long: `Open an interactive profile preview. Type a username to see its
placeholder glyph and avatar source; input is debounced so the avatar
host is only consulted once you stop typing.`,
	Example: `  # Start with an empty input
  igfollow preview

  # Start with a handle pre-filled
  igfollow preview johndoe`,
	Args: cobra.MaximumNArgs(1),
	Run:  runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()

	widget := preview.NewWidget(cfg, nil, nil, nil, log)
	if len(args) > 0 {
		widget.Start(args[0])
	}

	if err := tui.RunPreview(widget); err != nil {
		log.WithError(err).Error("Preview failed")
		os.Exit(1)
	}
}
