// Package ports defines the application layer port interfaces following hexagonal architecture.
// Ports are abstractions that allow the application core to interact with external systems
// (adapters) without knowing their implementation details.
package ports

import (
	"context"

	"github.com/jbctechsolutions/mcpnotes/internal/domain/note"
)

// NoteStore persists the complete, ordered set of notes.
// Implementations include a JSON file, SQLite and an in-memory store.
type NoteStore interface {
	// Load returns every stored note in storage order.
	// Missing, unreadable or corrupt backing data yields an empty set and a
	// nil error; the condition is logged by the adapter.
	Load(ctx context.Context) ([]*note.Note, error)

	// Save replaces the stored set with notes. The write is all-or-nothing;
	// failures are returned to the caller.
	Save(ctx context.Context, notes []*note.Note) error
}

// StoreDescriber is implemented by stores that can name their backend and
// location for logs and status output.
type StoreDescriber interface {
	Backend() string
	Location() string
}
