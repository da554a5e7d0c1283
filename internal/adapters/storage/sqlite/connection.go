// Package sqlite provides a NoteStore backed by a SQLite database.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Connection manages the SQLite database connection.
type Connection struct {
	db       *sql.DB
	dbPath   string
	mu       sync.RWMutex
	isClosed bool
}

// NewConnection creates a new SQLite connection.
// If dbPath is empty, it uses the default location: ~/.mcpnotes/notes.db
func NewConnection(dbPath string) (*Connection, error) {
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, ".mcpnotes", "notes.db")
	}

	return &Connection{dbPath: dbPath}, nil
}

// Open opens the database, creating its directory and applying migrations.
func (c *Connection) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return fmt.Errorf("database already open")
	}

	if err := os.MkdirAll(filepath.Dir(c.dbPath), 0o755); err != nil {
		return fmt.Errorf("could not create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", c.dbPath)
	if err != nil {
		return fmt.Errorf("could not open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with a single connection
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("could not ping database: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("could not run migrations: %w", err)
	}

	c.db = db
	c.isClosed = false
	return nil
}

// Close closes the database connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("could not close database: %w", err)
	}

	c.db = nil
	c.isClosed = true
	return nil
}

// DB returns the underlying database connection.
func (c *Connection) DB() (*sql.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.isClosed {
		return nil, fmt.Errorf("database is closed")
	}
	if c.db == nil {
		return nil, fmt.Errorf("database not open")
	}
	return c.db, nil
}

// Path returns the database file path.
func (c *Connection) Path() string {
	return c.dbPath
}

// IsClosed returns whether the connection is closed.
func (c *Connection) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isClosed
}
