package storage

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager handles saving downloaded export files and duplicate detection
type Manager struct {
	outputDir  string
	savedFiles map[string]bool
	mu         sync.RWMutex
}

// NewManager creates a manager rooted at outputDir, scanning any files
// already present so repeated downloads can be detected.
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{
		outputDir:  outputDir,
		savedFiles: make(map[string]bool),
	}

	if err := manager.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	return manager, nil
}

func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			m.savedFiles[entry.Name()] = true
		}
	}

	return nil
}

// Exists checks whether a file with the given name is already saved
func (m *Manager) Exists(filename string) bool {
	m.mu.RLock()
	if m.savedFiles[filename] {
		m.mu.RUnlock()
		return true
	}
	m.mu.RUnlock()

	if _, err := os.Stat(filepath.Join(m.outputDir, filename)); err == nil {
		m.mu.Lock()
		m.savedFiles[filename] = true
		m.mu.Unlock()
		return true
	}

	return false
}

// Save writes a downloaded file atomically and returns its full path. When a
// file with the same name already exists, a numeric suffix is appended so
// earlier exports are never overwritten.
func (m *Manager) Save(r io.Reader, filename string) (string, error) {
	filename = sanitizeFilename(filename)
	if filename == "" {
		return "", fmt.Errorf("empty file name")
	}

	m.mu.Lock()
	filename = m.uniqueName(filename)
	m.savedFiles[filename] = true
	m.mu.Unlock()

	path := filepath.Join(m.outputDir, filename)
	tempPath := path + ".tmp"

	out, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to save file data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return path, nil
}

// uniqueName must be called with the write lock held
func (m *Manager) uniqueName(filename string) string {
	if !m.savedFiles[filename] {
		if _, err := os.Stat(filepath.Join(m.outputDir, filename)); err != nil {
			return filename
		}
	}

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", base, i, ext)
		if m.savedFiles[candidate] {
			continue
		}
		if _, err := os.Stat(filepath.Join(m.outputDir, candidate)); err != nil {
			return candidate
		}
	}
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetSavedCount returns the number of files in the output directory
func (m *Manager) GetSavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.savedFiles)
}

// FilenameFromContentDisposition extracts the file name a server suggested
// for a download. Empty when the header is missing or unparseable.
func FilenameFromContentDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return sanitizeFilename(params["filename"])
}

// DefaultExportName returns the fallback file name for an export download
func DefaultExportName(format string) string {
	return "export." + format
}

// sanitizeFilename strips any path components from a server-provided name
func sanitizeFilename(filename string) string {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "." || filename == string(filepath.Separator) {
		return ""
	}
	return filename
}
