// Package testutil provides testing utilities and helpers for the mcpnotes project.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jbctechsolutions/mcpnotes/internal/domain/note"
)

// WriteFile writes content to a file in the given directory.
// Returns the full path to the created file.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
	return path
}

// Workspace is a temp directory holding a config file and its note store.
type Workspace struct {
	Dir        string
	ConfigPath string
	StorePath  string
}

// NewWorkspace writes a config for backend into a fresh temp directory.
// Logging is kept at error level so test output stays quiet.
func NewWorkspace(t *testing.T, backend string) *Workspace {
	t.Helper()
	dir := t.TempDir()

	store := filepath.Join(dir, "data", "notes."+backend)
	if backend == "memory" {
		store = ""
	}

	content := fmt.Sprintf("storage:\n  backend: %s\n  path: %q\nlogging:\n  level: error\n", backend, store)
	return &Workspace{
		Dir:        dir,
		ConfigPath: WriteFile(t, dir, "config.yaml", content),
		StorePath:  store,
	}
}

// ReadNotes decodes the JSON note file at path. A missing file yields nil.
func ReadNotes(t *testing.T, path string) []note.Note {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("failed to read notes %s: %v", path, err)
	}

	var notes []note.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		t.Fatalf("failed to decode notes %s: %v", path, err)
	}
	return notes
}
