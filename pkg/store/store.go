package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"igfollow/pkg/logger"
	"igfollow/pkg/snapshot"
)

// Store persists snapshot history on the local filesystem. Each snapshot is
// one JSON file under <dir>/<account>/<type>/, so diffs can be computed
// offline against any earlier capture.
type Store struct {
	dir    string
	logger logger.Logger
}

// New creates a store rooted at dir. An empty dir selects the platform data
// directory.
func New(dir string, log logger.Logger) (*Store, error) {
	if dir == "" {
		var err error
		dir, err = dataDirectory()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve data directory: %w", err)
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	if log == nil {
		log = logger.GetLogger()
	}

	return &Store{dir: dir, logger: log}, nil
}

// Dir returns the root directory of the store
func (s *Store) Dir() string {
	return s.dir
}

// Save writes a snapshot to disk atomically. Missing ID and CreatedAt fields
// are filled in.
func (s *Store) Save(snap *snapshot.Snapshot) error {
	if snap.Account == "" {
		return fmt.Errorf("snapshot has no account")
	}
	if _, err := snapshot.ValidateType(snap.Type); err != nil {
		return err
	}
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	dir := s.snapshotDir(snap.Account, snap.Type)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	path := filepath.Join(dir, s.fileName(snap))
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary snapshot file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snap); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync snapshot file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close snapshot file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}

	s.logger.DebugWithFields("Snapshot saved", map[string]interface{}{
		"account": snap.Account,
		"type":    snap.Type,
		"id":      snap.ID,
		"entries": len(snap.Entries),
	})

	return nil
}

// List returns all snapshots for an account and type, newest first
func (s *Store) List(account, snapType string) ([]*snapshot.Snapshot, error) {
	dir := s.snapshotDir(account, snapType)
	items, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var snaps []*snapshot.Snapshot
	for _, item := range items {
		if item.IsDir() || !strings.HasSuffix(item.Name(), ".json") {
			continue
		}
		snap, err := s.read(filepath.Join(dir, item.Name()))
		if err != nil {
			s.logger.WarnWithFields("Skipping unreadable snapshot file", map[string]interface{}{
				"file":  item.Name(),
				"error": err.Error(),
			})
			continue
		}
		snaps = append(snaps, snap)
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})

	return snaps, nil
}

// Latest returns the most recent snapshot, or nil when none exists
func (s *Store) Latest(account, snapType string) (*snapshot.Snapshot, error) {
	snaps, err := s.List(account, snapType)
	if err != nil || len(snaps) == 0 {
		return nil, err
	}
	return snaps[0], nil
}

// LatestTwo returns the two most recent snapshots for diffing. Either may be
// nil when the history is shorter.
func (s *Store) LatestTwo(account, snapType string) (current, previous *snapshot.Snapshot, err error) {
	snaps, err := s.List(account, snapType)
	if err != nil {
		return nil, nil, err
	}
	if len(snaps) > 0 {
		current = snaps[0]
	}
	if len(snaps) > 1 {
		previous = snaps[1]
	}
	return current, previous, nil
}

// Load returns the snapshot with the given id
func (s *Store) Load(account, snapType, id string) (*snapshot.Snapshot, error) {
	snaps, err := s.List(account, snapType)
	if err != nil {
		return nil, err
	}
	for _, snap := range snaps {
		if snap.ID == id {
			return snap, nil
		}
	}
	return nil, fmt.Errorf("snapshot %s not found", id)
}

// Delete removes the snapshot with the given id
func (s *Store) Delete(account, snapType, id string) error {
	snap, err := s.Load(account, snapType, id)
	if err != nil {
		return err
	}
	path := filepath.Join(s.snapshotDir(account, snapType), s.fileName(snap))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	s.logger.InfoWithFields("Snapshot deleted", map[string]interface{}{
		"account": account,
		"type":    snapType,
		"id":      id,
	})
	return nil
}

func (s *Store) read(path string) (*snapshot.Snapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snap snapshot.Snapshot
	if err := json.NewDecoder(file).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

func (s *Store) snapshotDir(account, snapType string) string {
	return filepath.Join(s.dir, snapshot.NormalizeUsername(account), snapType)
}

func (s *Store) fileName(snap *snapshot.Snapshot) string {
	return fmt.Sprintf("%s-%s.json", snap.CreatedAt.UTC().Format("20060102T150405"), snap.ID)
}

// dataDirectory returns the platform data directory for snapshot history
func dataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "igfollow")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "igfollow")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "igfollow")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "igfollow")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(dataDir, "snapshots"), nil
}
