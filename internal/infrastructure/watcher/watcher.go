// Package watcher reports debounced changes to a single file.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of file system event.
type EventType string

// Event types.
const (
	EventCreate EventType = "create"
	EventWrite  EventType = "write"
	EventRemove EventType = "remove"
	EventRename EventType = "rename"
)

// Event is a debounced change to the watched file.
type Event struct {
	Path      string
	Type      EventType
	Timestamp time.Time
}

// Config holds configuration for the file watcher.
type Config struct {
	DebounceDuration time.Duration
	BufferSize       int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		DebounceDuration: 100 * time.Millisecond,
		BufferSize:       100,
	}
}

// Watcher monitors one file. It watches the parent directory so that
// atomic replace-by-rename is seen as a create of the target name.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	config    Config
	target    string
	events    chan Event
	errors    chan error

	// Debouncing state
	pending   *pendingEvent
	pendingMu sync.Mutex

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.Mutex
}

type pendingEvent struct {
	eventType EventType
	timestamp time.Time
}

// New creates a watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}
	if cfg.DebounceDuration <= 0 {
		cfg.DebounceDuration = 100 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		fsWatcher: fsWatcher,
		config:    cfg,
		events:    make(chan Event, cfg.BufferSize),
		errors:    make(chan error, cfg.BufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Watch starts watching path. The parent directory is created if missing
// so a file that does not exist yet can still be watched.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create watch directory: %w", err)
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}
	w.target = abs

	w.wg.Add(2)
	go w.processEvents()
	go w.debounceProcessor()

	return nil
}

// Events returns the channel for receiving watch events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel for receiving watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.cancel()
	err := w.fsWatcher.Close()
	w.wg.Wait()

	close(w.events)
	close(w.errors)

	return err
}

// processEvents reads from fsnotify and records the latest event for the
// target file.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.target {
				continue
			}

			eventType := convertEventType(event.Op)
			if eventType == "" {
				continue
			}

			w.pendingMu.Lock()
			w.pending = &pendingEvent{eventType: eventType, timestamp: time.Now()}
			w.pendingMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func (w *Watcher) debounceProcessor() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.DebounceDuration / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.emitIfStable(time.Now())
		}
	}
}

// emitIfStable emits the pending event once no newer event has arrived for
// the debounce duration.
func (w *Watcher) emitIfStable(now time.Time) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if w.pending == nil || now.Sub(w.pending.timestamp) < w.config.DebounceDuration {
		return
	}

	event := Event{
		Path:      w.target,
		Type:      w.pending.eventType,
		Timestamp: w.pending.timestamp,
	}
	w.pending = nil

	select {
	case w.events <- event:
	default:
		// Drop event if channel is full
	}
}

// convertEventType converts fsnotify event operation to EventType.
func convertEventType(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return EventCreate
	case op&fsnotify.Write == fsnotify.Write:
		return EventWrite
	case op&fsnotify.Remove == fsnotify.Remove:
		return EventRemove
	case op&fsnotify.Rename == fsnotify.Rename:
		return EventRename
	default:
		return ""
	}
}
