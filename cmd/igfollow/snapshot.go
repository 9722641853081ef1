package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"igfollow/pkg/logger"
	"igfollow/pkg/snapshot"
	"igfollow/pkg/store"
	"igfollow/pkg/ui"
)

var (
	// Snapshot command flags
	snapshotType string
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage local follower snapshots",
	Long: `Manage locally stored follower and following snapshots.

Snapshots are parsed from standard data export files (JSON, CSV, or a plain
username list) and stored in the local data directory. Two snapshots of the
same account can then be diffed to see who followed and unfollowed.`,
}

// snapshotAddCmd represents the snapshot add command
var snapshotAddCmd = &cobra.Command{
	Use:   "add <username> <file>",
	Short: "Parse a data export file and store it as a snapshot",
	Long: `Parse a follower or following list from a data export file and store it
as a snapshot for the given account.

Supported input formats:
  - JSON data export (relationships_followers / string_list_data)
  - CSV with a username column
  - Plain list with one username per line`,
	Example: `  # Store a followers snapshot
  igfollow snapshot add johndoe followers_1.json

  # Store a following snapshot from a CSV export
  igfollow snapshot add johndoe following.csv --type following`,
	Args: cobra.ExactArgs(2),
	Run:  runSnapshotAdd,
}

// snapshotListCmd represents the snapshot list command
var snapshotListCmd = &cobra.Command{
	Use:   "list <username>",
	Short: "List stored snapshots for an account",
	Args:  cobra.ExactArgs(1),
	Run:   runSnapshotList,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotAddCmd)
	snapshotCmd.AddCommand(snapshotListCmd)

	snapshotCmd.PersistentFlags().StringVarP(&snapshotType, "type", "t", "followers", "snapshot type (followers, following)")
}

func runSnapshotAdd(cmd *cobra.Command, args []string) {
	username := snapshot.NormalizeUsername(args[0])
	path := args[1]

	snapType, err := snapshot.ValidateType(snapshotType)
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

	file, err := os.Open(path)
	if err != nil {
		ui.PrintError("Failed to open file", err.Error())
		os.Exit(1)
	}
	defer file.Close()

	entries, err := snapshot.Parse(file, path)
	if err != nil {
		ui.PrintError("Failed to parse file", err.Error())
		os.Exit(1)
	}
	if len(entries) == 0 {
		ui.PrintWarning("No usernames found in file", path)
		os.Exit(1)
	}

	snapStore, err := store.New(cfg.Store.DataDirectory, log)
	if err != nil {
		ui.PrintError("Failed to open snapshot store", err.Error())
		os.Exit(1)
	}

	snap := &snapshot.Snapshot{
		Account:   username,
		Type:      snapType,
		CreatedAt: time.Now().UTC(),
		Entries:   entries,
	}
	if err := snapStore.Save(snap); err != nil {
		ui.PrintError("Failed to save snapshot", err.Error())
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"account": username,
		"type":    snapType,
		"entries": len(entries),
	}).Info("Snapshot stored")
	ui.PrintSuccess(fmt.Sprintf("Stored %s snapshot for %s (%d profiles)", snapType, username, len(entries)))

	if snapshot.ExceedsFreeLimit(len(entries)) {
		ui.PrintWarning("Snapshot exceeds the free export limit", fmt.Sprintf("%d > %d", len(entries), snapshot.FreeExportLimit))
	}
}

func runSnapshotList(cmd *cobra.Command, args []string) {
	username := snapshot.NormalizeUsername(args[0])

	snapType, err := snapshot.ValidateType(snapshotType)
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

	snapStore, err := store.New(cfg.Store.DataDirectory, logger.GetLogger())
	if err != nil {
		ui.PrintError("Failed to open snapshot store", err.Error())
		os.Exit(1)
	}

	snaps, err := snapStore.List(username, snapType)
	if err != nil {
		ui.PrintError("Failed to list snapshots", err.Error())
		os.Exit(1)
	}
	if len(snaps) == 0 {
		ui.PrintInfo("No snapshots stored", "Use 'igfollow snapshot add' to store one")
		return
	}

	ui.PrintHighlight(fmt.Sprintf("Snapshots for %s (%s)", username, snapType))
	fmt.Println()
	for i, snap := range snaps {
		fmt.Printf("%d. %s  %d profiles  (id %s)\n", i+1, snap.CreatedAt.Format("2006-01-02 15:04:05"), len(snap.Entries), snap.ID)
	}
}
