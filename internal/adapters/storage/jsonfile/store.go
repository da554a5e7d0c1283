// Package jsonfile provides a NoteStore backed by a single JSON file.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jbctechsolutions/mcpnotes/internal/domain/note"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/logging"
)

// DefaultPath is used when no path is configured.
const DefaultPath = "data/notes.json"

// Store reads and writes the whole note set as a JSON array.
type Store struct {
	path   string
	logger *logging.Logger
}

// New creates a store for path. An empty path uses DefaultPath.
func New(path string, logger *logging.Logger) *Store {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Backend names the store type.
func (s *Store) Backend() string { return "json" }

// Location describes where notes live.
func (s *Store) Location() string { return s.path }

// Load reads the note file. A missing file yields an empty set silently;
// an unreadable or corrupt file yields an empty set and a warning.
func (s *Store) Load(ctx context.Context) ([]*note.Note, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*note.Note{}, nil
	}
	if err != nil {
		logging.LogStoreFallback(ctx, s.logger, s.Backend(), s.path, err)
		return []*note.Note{}, nil
	}

	notes, err := Decode(data)
	if err != nil {
		logging.LogStoreFallback(ctx, s.logger, s.Backend(), s.path, err)
		return []*note.Note{}, nil
	}
	return notes, nil
}

// Save writes the full note set, replacing the file atomically.
func (s *Store) Save(_ context.Context, notes []*note.Note) error {
	data, err := Encode(notes)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create notes directory: %w", err)
	}
	return writeFileAtomic(s.path, data, 0o644)
}

// Encode renders notes as an indented JSON array without HTML escaping.
// A nil slice encodes as [] and nil tags as [].
func Encode(notes []*note.Note) ([]byte, error) {
	out := make([]*note.Note, 0, len(notes))
	for _, n := range notes {
		if n.Tags == nil {
			c := *n
			c.Tags = []string{}
			n = &c
		}
		out = append(out, n)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode notes: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a JSON array of notes. Missing tags decode as empty.
func Decode(data []byte) ([]*note.Note, error) {
	var notes []*note.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}

	out := make([]*note.Note, 0, len(notes))
	for i, n := range notes {
		if n == nil {
			return nil, fmt.Errorf("decode notes: entry %d is null", i)
		}
		if n.Tags == nil {
			n.Tags = []string{}
		}
		out = append(out, n)
	}
	return out, nil
}

// writeFileAtomic writes data to a temp file in the same directory, syncs
// it and renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op once the rename succeeded.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
