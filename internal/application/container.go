// Package application provides application-level services and dependency injection.
package application

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jbctechsolutions/mcpnotes/internal/adapters/storage/jsonfile"
	"github.com/jbctechsolutions/mcpnotes/internal/adapters/storage/memory"
	"github.com/jbctechsolutions/mcpnotes/internal/adapters/storage/sqlite"
	"github.com/jbctechsolutions/mcpnotes/internal/application/dispatch"
	"github.com/jbctechsolutions/mcpnotes/internal/application/notes"
	"github.com/jbctechsolutions/mcpnotes/internal/application/observability"
	"github.com/jbctechsolutions/mcpnotes/internal/application/ports"
	"github.com/jbctechsolutions/mcpnotes/internal/application/prompts"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/config"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/logging"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/metrics"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/tracing"
)

// Server names accepted by Router.
const (
	ServerNotes   = "notes"
	ServerPrompts = "prompts"
)

// ErrUnknownServer is returned by Router for a name it does not serve.
var ErrUnknownServer = errors.New("unknown server")

// Option customizes a Container.
type Option func(*Container)

// WithLogOutput redirects log output, mainly for tests.
func WithLogOutput(w io.Writer) Option {
	return func(c *Container) { c.logOutput = w }
}

// WithStore replaces the configured note store.
func WithStore(store ports.NoteStore) Option {
	return func(c *Container) { c.store = store }
}

// Container holds all application dependencies and provides a central
// point for dependency injection.
type Container struct {
	// Configuration
	config    *config.Config
	verbose   bool // Override log level to debug when true
	logOutput io.Writer

	// Storage
	store  ports.NoteStore
	closer io.Closer

	// Observability
	logger               *logging.Logger
	tracer               *tracing.Tracer
	metrics              *metrics.Recorder
	observabilityService *observability.Service

	// Application services
	notesService  *notes.Service
	notesRouter   *dispatch.Router
	promptsRouter *dispatch.Router
}

// NewContainer creates a new dependency injection container with all services
// initialized based on the provided configuration.
func NewContainer(cfg *config.Config, verbose bool, opts ...Option) (*Container, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	c := &Container{
		config:  cfg,
		verbose: verbose,
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.initObservability(); err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	if err := c.initStore(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := c.initServices(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return c, nil
}

// initObservability initializes logging, tracing and metrics.
func (c *Container) initObservability() error {
	ctx := context.Background()

	logLevel := logging.Level(c.config.Logging.Level)
	if logLevel == "" {
		logLevel = logging.LevelInfo
	}
	if c.verbose {
		logLevel = logging.LevelDebug
	}

	logFormat := logging.FormatText
	if c.config.Logging.Format == "json" {
		logFormat = logging.FormatJSON
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logLevel
	logCfg.Format = logFormat
	if c.logOutput != nil {
		logCfg.Output = c.logOutput
	}
	c.logger = logging.New(logCfg)

	if c.config.Observability.Tracing.Enabled {
		tracingCfg := tracing.Config{
			Enabled:      true,
			ExporterType: tracing.ExporterType(c.config.Observability.Tracing.ExporterType),
			OTLPEndpoint: c.config.Observability.Tracing.OTLPEndpoint,
			ServiceName:  c.config.Observability.Tracing.ServiceName,
			Environment:  "production",
			SampleRate:   c.config.Observability.Tracing.SampleRate,
		}
		tracer, err := tracing.New(ctx, tracingCfg)
		if err != nil {
			return fmt.Errorf("failed to create tracer: %w", err)
		}
		c.tracer = tracer
	} else {
		c.tracer = tracing.Default()
	}

	if c.config.Observability.Metrics.Enabled {
		c.metrics = metrics.New(c.config.Observability.Metrics.Runtime)
	}

	c.observabilityService = observability.NewService(observability.ServiceConfig{
		Logger:  c.logger,
		Tracer:  c.tracer,
		Metrics: c.metrics,
	})

	return nil
}

// initStore opens the configured note store unless one was injected.
func (c *Container) initStore() error {
	if c.store != nil {
		return nil
	}

	path := c.config.Storage.Path
	switch c.config.Storage.Backend {
	case config.BackendJSON, "":
		c.store = jsonfile.New(path, c.logger)
	case config.BackendMemory:
		c.store = memory.New()
	case config.BackendSQLite:
		store, err := sqlite.Open(path, c.logger)
		if err != nil {
			return err
		}
		c.store = store
		c.closer = store
	default:
		return fmt.Errorf("unsupported storage backend %q", c.config.Storage.Backend)
	}
	return nil
}

// initServices builds the note service and both routers.
func (c *Container) initServices() error {
	allow, err := dispatch.NewAllowList(c.config.Operations.Allow)
	if err != nil {
		return err
	}

	routerOpts := []dispatch.Option{
		dispatch.WithObserver(c.observabilityService),
		dispatch.WithAllowList(allow),
	}
	version := c.config.Server.Version

	c.notesService = notes.NewService(notes.ServiceConfig{
		Store:   c.store,
		Logger:  c.logger,
		Tracer:  c.tracer,
		Metrics: c.metrics,
	})

	c.notesRouter = dispatch.NewRouter(notes.Identity(version), routerOpts...)
	for _, op := range c.notesService.Operations() {
		if _, err := c.notesRouter.Register(op); err != nil {
			return err
		}
	}

	c.promptsRouter = dispatch.NewRouter(prompts.Identity(version), routerOpts...)
	for _, op := range prompts.Operations() {
		if _, err := c.promptsRouter.Register(op); err != nil {
			return err
		}
	}

	return nil
}

// Close releases the store and flushes pending spans.
func (c *Container) Close() error {
	var errs []error

	if c.closer != nil {
		if err := c.closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close store: %w", err))
		}
		c.closer = nil
	}

	if c.tracer != nil {
		if err := c.tracer.Shutdown(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer: %w", err))
		}
	}

	return errors.Join(errs...)
}

// Router returns the router for a server name.
func (c *Container) Router(server string) (*dispatch.Router, error) {
	switch server {
	case ServerNotes:
		return c.notesRouter, nil
	case ServerPrompts:
		return c.promptsRouter, nil
	default:
		return nil, fmt.Errorf("%w: %q (expected %s or %s)", ErrUnknownServer, server, ServerNotes, ServerPrompts)
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger.
func (c *Container) Logger() *logging.Logger {
	return c.logger
}

// Tracer returns the tracer.
func (c *Container) Tracer() *tracing.Tracer {
	return c.tracer
}

// Metrics returns the metrics recorder, or nil when metrics are disabled.
func (c *Container) Metrics() *metrics.Recorder {
	return c.metrics
}

// ObservabilityService returns the dispatch observer.
func (c *Container) ObservabilityService() *observability.Service {
	return c.observabilityService
}

// Store returns the note store.
func (c *Container) Store() ports.NoteStore {
	return c.store
}

// NotesService returns the notes service.
func (c *Container) NotesService() *notes.Service {
	return c.notesService
}

// NotesRouter returns the router for the notes server.
func (c *Container) NotesRouter() *dispatch.Router {
	return c.notesRouter
}

// PromptsRouter returns the router for the prompts server.
func (c *Container) PromptsRouter() *dispatch.Router {
	return c.promptsRouter
}
