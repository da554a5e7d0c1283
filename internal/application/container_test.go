package application

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jbctechsolutions/mcpnotes/internal/adapters/storage/memory"
	"github.com/jbctechsolutions/mcpnotes/internal/application/notes"
	"github.com/jbctechsolutions/mcpnotes/internal/application/prompts"
	"github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/config"
)

func newTestContainer(t *testing.T, cfg *config.Config, opts ...Option) *Container {
	t.Helper()
	opts = append([]Option{WithLogOutput(&bytes.Buffer{})}, opts...)
	c, err := NewContainer(cfg, false, opts...)
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewContainer(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "notes.json")

	c := newTestContainer(t, cfg)

	if c.Config() == nil {
		t.Error("Config should not be nil")
	}
	if c.Logger() == nil {
		t.Error("Logger should not be nil")
	}
	if c.Tracer() == nil {
		t.Error("Tracer should not be nil")
	}
	if c.Metrics() == nil {
		t.Error("Metrics should be enabled by default")
	}
	if c.ObservabilityService() == nil {
		t.Error("ObservabilityService should not be nil")
	}
	if c.Store() == nil {
		t.Error("Store should not be nil")
	}
	if c.NotesService() == nil {
		t.Error("NotesService should not be nil")
	}
	if got := len(c.NotesRouter().Operations(mcp.KindTool)); got != 4 {
		t.Errorf("expected 4 note tools, got %d", got)
	}
	if got := len(c.PromptsRouter().Operations(mcp.KindPrompt)); got != 2 {
		t.Errorf("expected 2 prompts, got %d", got)
	}
}

func TestNewContainer_NilConfigUsesDefaults(t *testing.T) {
	c := newTestContainer(t, nil, WithStore(memory.New()))
	if c.Config().Storage.Backend != config.DefaultStorageBackend {
		t.Errorf("expected default backend, got %q", c.Config().Storage.Backend)
	}
}

func TestNewContainer_Backends(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		backend string
		path    string
		want    string
	}{
		{config.BackendJSON, filepath.Join(dir, "notes.json"), "json"},
		{config.BackendSQLite, filepath.Join(dir, "notes.db"), "sqlite"},
		{config.BackendMemory, "", "memory"},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			cfg.Storage.Backend = tt.backend
			cfg.Storage.Path = tt.path

			c := newTestContainer(t, cfg)
			d, ok := c.Store().(interface{ Backend() string })
			if !ok {
				t.Fatal("store does not describe its backend")
			}
			if d.Backend() != tt.want {
				t.Errorf("Backend() = %q, want %q", d.Backend(), tt.want)
			}

			ctx := context.Background()
			env := c.NotesRouter().Dispatch(ctx, notes.OpCreate, map[string]any{"title": "t", "body": "b"})
			if env.IsError() {
				t.Fatalf("create failed: %s", env.Text())
			}
			env = c.NotesRouter().Dispatch(ctx, notes.OpList, nil)
			if !strings.Contains(env.Text(), "• t") {
				t.Errorf("list = %q", env.Text())
			}
		})
	}
}

func TestNewContainer_UnknownBackend(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Storage.Backend = "redis"
	if _, err := NewContainer(cfg, false, WithLogOutput(&bytes.Buffer{})); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewContainer_AllowListFiltersOperations(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Operations.Allow = []string{"list_*", "search_*", "explain_*"}

	c := newTestContainer(t, cfg, WithStore(memory.New()))

	tools := c.NotesRouter().Operations(mcp.KindTool)
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	env := c.NotesRouter().Dispatch(context.Background(), notes.OpCreate, map[string]any{"title": "t", "body": "b"})
	if !env.IsError() || env.Error.Kind != mcp.KindNotFound {
		t.Errorf("expected create_note to be hidden, got %+v", env)
	}

	promptOps := c.PromptsRouter().Operations("")
	if len(promptOps) != 1 || promptOps[0].Name != prompts.OpExplain {
		t.Errorf("expected only explain_code, got %+v", promptOps)
	}
}

func TestNewContainer_InvalidAllowPattern(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Operations.Allow = []string{"[broken"}
	if _, err := NewContainer(cfg, false, WithLogOutput(&bytes.Buffer{}), WithStore(memory.New())); err == nil {
		t.Fatal("expected error for malformed allow pattern")
	}
}

func TestContainer_Router(t *testing.T) {
	c := newTestContainer(t, nil, WithStore(memory.New()))

	r, err := c.Router(ServerNotes)
	if err != nil || r != c.NotesRouter() {
		t.Errorf("Router(notes) = %v, %v", r, err)
	}
	r, err = c.Router(ServerPrompts)
	if err != nil || r != c.PromptsRouter() {
		t.Errorf("Router(prompts) = %v, %v", r, err)
	}
	if _, err := c.Router("files"); !errors.Is(err, ErrUnknownServer) {
		t.Errorf("expected ErrUnknownServer, got %v", err)
	}
}

func TestContainer_DispatchesAreMetered(t *testing.T) {
	c := newTestContainer(t, nil, WithStore(memory.New()))
	c.PromptsRouter().Dispatch(context.Background(), prompts.OpExplain, map[string]any{"code": "x"})

	families, err := c.Metrics().Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "mcpnotes_dispatch_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected dispatch counter to be exported")
	}
}

func TestNewContainer_VerboseEnablesDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	c, err := NewContainer(nil, true, WithLogOutput(buf), WithStore(memory.New()))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	c.Logger().Debug("debug probe")
	if !strings.Contains(buf.String(), "debug probe") {
		t.Error("expected debug output when verbose")
	}
}

func TestContainer_CloseIsIdempotent(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Storage.Backend = config.BackendSQLite
	cfg.Storage.Path = filepath.Join(t.TempDir(), "notes.db")

	c, err := NewContainer(cfg, false, WithLogOutput(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("first Close() = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}
