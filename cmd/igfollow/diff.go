package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"igfollow/internal/prefetch"
	"igfollow/pkg/avatar"
	"igfollow/pkg/config"
	"igfollow/pkg/logger"
	"igfollow/pkg/ratelimit"
	"igfollow/pkg/snapshot"
	"igfollow/pkg/storage"
	"igfollow/pkg/store"
	"igfollow/pkg/ui"
)

var (
	// Diff command flags
	diffType        string
	diffWarmAvatars bool
)

// diffCmd represents the diff command
var diffCmd = &cobra.Command{
	Use:   "diff <username>",
	Short: "Compare the two most recent snapshots of an account",
	Long: `Compare the two most recent snapshots of an account and show who
followed and unfollowed between them.

Username comparison is case-insensitive. With --avatars the avatar images
of changed profiles are prefetched into the local cache so later previews
render instantly.`,
	Example: `  # Diff the two latest followers snapshots
  igfollow diff johndoe

  # Diff following snapshots and warm the avatar cache
  igfollow diff johndoe --type following --avatars`,
	Args: cobra.ExactArgs(1),
	Run:  runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().StringVarP(&diffType, "type", "t", "followers", "snapshot type (followers, following)")
	diffCmd.Flags().BoolVar(&diffWarmAvatars, "avatars", false, "prefetch avatars for changed profiles")
}

func runDiff(cmd *cobra.Command, args []string) {
	username := snapshot.NormalizeUsername(args[0])

	snapType, err := snapshot.ValidateType(diffType)
	if err != nil {
		ui.PrintError("Invalid snapshot type", err.Error())
		os.Exit(1)
	}

	cfg, err := loadConfig(nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}
	logger.Initialize(&cfg.Logging)
	log := logger.GetLogger()

	snapStore, err := store.New(cfg.Store.DataDirectory, log)
	if err != nil {
		ui.PrintError("Failed to open snapshot store", err.Error())
		os.Exit(1)
	}

	current, previous, err := snapStore.LatestTwo(username, snapType)
	if err != nil {
		ui.PrintError("Need at least two snapshots to diff", err.Error())
		fmt.Println("\nStore snapshots with:")
		fmt.Printf("  igfollow snapshot add %s <file> --type %s\n", username, snapType)
		os.Exit(1)
	}

	diff := snapshot.ComputeDiff(previous.Usernames(), current.Usernames())

	ui.PrintHighlight(fmt.Sprintf("Changes for %s (%s)", username, snapType))
	ui.PrintInfo("Previous snapshot", previous.CreatedAt.Format("2006-01-02 15:04:05"))
	ui.PrintInfo("Current snapshot", current.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println()

	if len(diff.Added) == 0 && len(diff.Removed) == 0 {
		ui.PrintSuccess("No changes between snapshots")
		return
	}

	if len(diff.Added) > 0 {
		fmt.Printf("%s (%d)\n", ui.Green("New followers"), len(diff.Added))
		for _, handle := range diff.Added {
			fmt.Printf("  + %s\n", handle)
		}
		fmt.Println()
	}
	if len(diff.Removed) > 0 {
		fmt.Printf("%s (%d)\n", ui.Red("Unfollowed"), len(diff.Removed))
		for _, handle := range diff.Removed {
			fmt.Printf("  - %s\n", handle)
		}
		fmt.Println()
	}

	if diffWarmAvatars {
		warmAvatars(cfg, append(diff.Added, diff.Removed...), log)
	}
}

func warmAvatars(cfg *config.Config, handles []string, log logger.Logger) {
	cache, err := storage.NewManager(cfg.Avatar.CacheDirectory)
	if err != nil {
		ui.PrintWarning("Failed to prepare avatar cache", err.Error())
		return
	}

	limiter := ratelimit.NewTokenBucket(cfg.Avatar.RequestsPerMinute, time.Minute)
	fetcher := avatar.NewFetcher(&cfg.Avatar, limiter, cache, log)

	ui.PrintInfo("Warming avatar cache", fmt.Sprintf("%d profiles", len(handles)))
	summary := prefetch.WarmAll(handles, cfg.Avatar.PrefetchWorkers, fetcher, log)

	fmt.Printf("  warmed %d, cached %d, failed %d\n", summary.Warmed, summary.Skipped, summary.Failed)
}
