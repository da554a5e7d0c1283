package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := New(Config{DebounceDuration: 50 * time.Millisecond, BufferSize: 10})
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	select {
	case event := <-w.Events():
		return event
	case err := <-w.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DebounceDuration != 100*time.Millisecond {
		t.Errorf("expected DebounceDuration 100ms, got %v", cfg.DebounceDuration)
	}
	if cfg.BufferSize != 100 {
		t.Errorf("expected BufferSize 100, got %d", cfg.BufferSize)
	}
}

func TestWatcher_DetectsCreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.json")

	w := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("failed to watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	event := waitEvent(t, w)
	if event.Path != path {
		t.Errorf("expected path %q, got %q", path, event.Path)
	}
	// Create and write may coalesce into either type
	if event.Type != EventCreate && event.Type != EventWrite {
		t.Errorf("expected create or write, got %q", event.Type)
	}
}

func TestWatcher_DetectsAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.json")
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("failed to watch: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	tmp := filepath.Join(dir, ".notes.json.tmp-1")
	if err := os.WriteFile(tmp, []byte(`[{"id":"x"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	event := waitEvent(t, w)
	if event.Path != path {
		t.Errorf("expected path %q, got %q", path, event.Path)
	}
}

func TestWatcher_DetectsRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.json")
	if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("failed to watch: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	if event := waitEvent(t, w); event.Type != EventRemove {
		t.Errorf("expected remove event, got %q", event.Type)
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t)
	if err := w.Watch(filepath.Join(dir, "notes.json")); err != nil {
		t.Fatalf("failed to watch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case event := <-w.Events():
		t.Errorf("unexpected event for sibling file: %+v", event)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_CreatesMissingParent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "notes.json")
	w := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("failed to watch: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("expected parent directory to exist: %v", err)
	}
}

func TestWatcher_DebounceCoalesces(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.json")

	w, err := New(Config{DebounceDuration: 200 * time.Millisecond, BufferSize: 10})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{byte('0' + i)}, 0644); err != nil {
			t.Fatal(err)
		}
	}

	waitEvent(t, w)
	select {
	case event := <-w.Events():
		t.Errorf("expected a single coalesced event, got another: %+v", event)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	w, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := w.Watch("ignored"); err != nil {
		t.Errorf("Watch after Close should be a no-op, got %v", err)
	}
}

func TestConvertEventType(t *testing.T) {
	tests := []struct {
		op   fsnotify.Op
		want EventType
	}{
		{fsnotify.Create, EventCreate},
		{fsnotify.Write, EventWrite},
		{fsnotify.Remove, EventRemove},
		{fsnotify.Rename, EventRename},
		{fsnotify.Chmod, ""},
		{fsnotify.Create | fsnotify.Write, EventCreate},
	}

	for _, tt := range tests {
		if got := convertEventType(tt.op); got != tt.want {
			t.Errorf("convertEventType(%v) = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestEmitIfStable(t *testing.T) {
	w := &Watcher{
		config: Config{DebounceDuration: time.Second},
		target: "/tmp/notes.json",
		events: make(chan Event, 1),
	}
	start := time.Unix(100, 0)
	w.pending = &pendingEvent{eventType: EventWrite, timestamp: start}

	w.emitIfStable(start.Add(500 * time.Millisecond))
	if len(w.events) != 0 {
		t.Fatal("event emitted before debounce elapsed")
	}

	w.emitIfStable(start.Add(time.Second))
	if len(w.events) != 1 {
		t.Fatal("expected event after debounce elapsed")
	}
	if w.pending != nil {
		t.Error("pending event should be cleared")
	}
}
