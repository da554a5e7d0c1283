// Package memory provides an in-process NoteStore, used for tests and
// ephemeral servers.
package memory

import (
	"context"
	"sync"

	"github.com/jbctechsolutions/mcpnotes/internal/domain/note"
)

// Store keeps notes in memory. Load and Save copy, so callers never share
// note values with the store.
type Store struct {
	mu      sync.Mutex
	notes   []*note.Note
	saves   int
	saveErr error
}

// New creates a store seeded with notes.
func New(seed ...*note.Note) *Store {
	return &Store{notes: cloneAll(seed)}
}

// Load returns a copy of the stored notes.
func (s *Store) Load(_ context.Context) ([]*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.notes), nil
}

// Save replaces the stored notes.
func (s *Store) Save(_ context.Context, notes []*note.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}
	s.notes = cloneAll(notes)
	s.saves++
	return nil
}

// FailSaves makes every subsequent Save return err. A nil err clears it.
func (s *Store) FailSaves(err error) {
	s.mu.Lock()
	s.saveErr = err
	s.mu.Unlock()
}

// Saves returns how many successful saves happened.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Backend names the store type.
func (s *Store) Backend() string { return "memory" }

// Location describes where notes live.
func (s *Store) Location() string { return "memory" }

func cloneAll(in []*note.Note) []*note.Note {
	out := make([]*note.Note, 0, len(in))
	for _, n := range in {
		c := *n
		c.Tags = append([]string{}, n.Tags...)
		out = append(out, &c)
	}
	return out
}
