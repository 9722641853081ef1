package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManagerSaveAndExists(t *testing.T) {
	tempDir := t.TempDir()

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if manager.GetSavedCount() != 0 {
		t.Error("Expected initial saved count to be 0")
	}
	if manager.Exists("export.csv") {
		t.Error("Expected Exists to return false for non-existent file")
	}

	testData := []byte("username,full_name\nalice,Alice\n")
	path, err := manager.Save(bytes.NewReader(testData), "export.csv")
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	if path != filepath.Join(tempDir, "export.csv") {
		t.Errorf("Unexpected saved path: %s", path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.Equal(content, testData) {
		t.Error("File content does not match expected data")
	}

	if !manager.Exists("export.csv") {
		t.Error("Expected Exists to return true after save")
	}
	if manager.GetSavedCount() != 1 {
		t.Errorf("Expected saved count 1, got %d", manager.GetSavedCount())
	}
}

func TestManagerNeverOverwrites(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	first, err := manager.Save(bytes.NewReader([]byte("first")), "export.csv")
	if err != nil {
		t.Fatalf("Failed to save first file: %v", err)
	}
	second, err := manager.Save(bytes.NewReader([]byte("second")), "export.csv")
	if err != nil {
		t.Fatalf("Failed to save second file: %v", err)
	}

	if first == second {
		t.Error("Expected distinct paths for repeated downloads")
	}
	if filepath.Base(second) != "export-1.csv" {
		t.Errorf("Unexpected collision name: %s", filepath.Base(second))
	}

	content, _ := os.ReadFile(first)
	if string(content) != "first" {
		t.Error("Original file was overwritten")
	}
}

func TestManagerScansExistingFiles(t *testing.T) {
	tempDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tempDir, "export.xlsx"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	if !manager.Exists("export.xlsx") {
		t.Error("Expected pre-existing file to be detected")
	}
	if manager.GetSavedCount() != 1 {
		t.Errorf("Expected saved count 1, got %d", manager.GetSavedCount())
	}
}

func TestManagerStripsPathComponents(t *testing.T) {
	tempDir := t.TempDir()
	manager, err := NewManager(tempDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	path, err := manager.Save(bytes.NewReader([]byte("x")), "../../evil.csv")
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}
	if filepath.Dir(path) != tempDir {
		t.Errorf("File escaped the output directory: %s", path)
	}
}

func TestFilenameFromContentDisposition(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{`attachment; filename="followers_export.csv"`, "followers_export.csv"},
		{`attachment; filename=export.xlsx`, "export.xlsx"},
		{`attachment; filename="../sneaky.csv"`, "sneaky.csv"},
		{`attachment`, ""},
		{``, ""},
		{`not a header ;;;`, ""},
	}

	for _, tt := range tests {
		if got := FilenameFromContentDisposition(tt.header); got != tt.want {
			t.Errorf("FilenameFromContentDisposition(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestDefaultExportName(t *testing.T) {
	if got := DefaultExportName("csv"); got != "export.csv" {
		t.Errorf("DefaultExportName(csv) = %q", got)
	}
	if got := DefaultExportName("xlsx"); got != "export.xlsx" {
		t.Errorf("DefaultExportName(xlsx) = %q", got)
	}
}
