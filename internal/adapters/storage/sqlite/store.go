package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jbctechsolutions/mcpnotes/internal/domain/note"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/logging"
)

// Store keeps notes in the notes table; the position column preserves
// insertion order.
type Store struct {
	conn   *Connection
	logger *logging.Logger
}

// Open connects to dbPath, applies migrations and returns a store.
func Open(dbPath string, logger *logging.Logger) (*Store, error) {
	conn, err := NewConnection(dbPath)
	if err != nil {
		return nil, err
	}
	if err := conn.Open(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{conn: conn, logger: logger}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Backend names the store type.
func (s *Store) Backend() string { return "sqlite" }

// Location describes where notes live.
func (s *Store) Location() string { return s.conn.Path() }

// Load returns all notes ordered by position. Query or decode failures are
// logged and yield an empty set.
func (s *Store) Load(ctx context.Context) ([]*note.Note, error) {
	notes, err := s.fetch(ctx)
	if err != nil {
		logging.LogStoreFallback(ctx, s.logger, s.Backend(), s.Location(), err)
		return []*note.Note{}, nil
	}
	return notes, nil
}

func (s *Store) fetch(ctx context.Context) ([]*note.Note, error) {
	db, err := s.conn.DB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT id, title, body, created_at, tags FROM notes ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("could not query notes: %w", err)
	}
	defer rows.Close()

	notes := []*note.Note{}
	for rows.Next() {
		var (
			n         note.Note
			createdAt string
			tags      string
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &createdAt, &tags); err != nil {
			return nil, fmt.Errorf("could not scan note: %w", err)
		}
		if n.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("note %s: bad created_at: %w", n.ID, err)
		}
		if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
			return nil, fmt.Errorf("note %s: bad tags: %w", n.ID, err)
		}
		if n.Tags == nil {
			n.Tags = []string{}
		}
		notes = append(notes, &n)
	}
	return notes, rows.Err()
}

// Save replaces every row in a single transaction.
func (s *Store) Save(ctx context.Context, notes []*note.Note) error {
	db, err := s.conn.DB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM notes"); err != nil {
		return fmt.Errorf("could not clear notes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO notes (id, position, title, body, created_at, tags) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("could not prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, n := range notes {
		if err := insertNote(ctx, stmt, i, n); err != nil {
			return fmt.Errorf("could not insert note %s: %w", n.ID, err)
		}
	}

	return tx.Commit()
}

func insertNote(ctx context.Context, stmt *sql.Stmt, position int, n *note.Note) error {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	_, err = stmt.ExecContext(ctx,
		n.ID, position, n.Title, n.Body,
		n.CreatedAt.UTC().Format(time.RFC3339Nano), string(encoded))
	return err
}
