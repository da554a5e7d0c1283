// Package commands implements the CLI commands for mcpnotes.
package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/mcpnotes/internal/application"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/config"
	"github.com/jbctechsolutions/mcpnotes/internal/presentation/cli/output"
)

// Version information - set at build time via ldflags.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// GlobalFlags holds the global CLI flags.
type GlobalFlags struct {
	ConfigFile string
	Output     string
	Verbose    bool
}

// AppContext holds the application runtime context.
type AppContext struct {
	Config     *config.Config
	Formatter  *output.Formatter
	Flags      *GlobalFlags
	Container  *application.Container
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Context returns the application context, cancelled on Shutdown.
func (a *AppContext) Context() context.Context {
	return a.ctx
}

var (
	globalFlags GlobalFlags
	appCtx      *AppContext
	appCtxMu    sync.RWMutex // Protects appCtx for thread-safe access
)

// NewRootCmd creates the root command for the mcpnotes CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mcpnotes",
		Short: "mcpnotes - notes and code prompts over the Model Context Protocol",
		Long: `mcpnotes hosts two Model Context Protocol servers:

  • notes    create, list, search and delete notes kept in a local store
  • prompts  code review and explanation prompt templates

Servers speak JSON-RPC over stdio by default or over HTTP with --http.
The same operations are available directly from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip initialization for help, version and completion commands
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			return initializeApp(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			Shutdown()
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&globalFlags.ConfigFile, "config", "c", "", "config file path (default: ~/.mcpnotes/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&globalFlags.Output, "output", "o", "text", "output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewNotesCmd())
	rootCmd.AddCommand(NewPromptsCmd())
	rootCmd.AddCommand(NewToolsCmd())
	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewReplCmd())
	rootCmd.AddCommand(NewInspectCmd())

	return rootCmd
}

// newFormatter builds a formatter for cmd's output stream honoring --output.
func newFormatter(cmd *cobra.Command) (*output.Formatter, error) {
	format, err := output.ParseFormat(globalFlags.Output)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithFormat(format),
		output.WithColor(format != output.FormatJSON && output.IsColorSupported()),
	), nil
}

// initializeApp initializes the application context.
func initializeApp(cmd *cobra.Command) error {
	formatter, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(globalFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	container, err := application.NewContainer(cfg, globalFlags.Verbose, application.WithLogOutput(cmd.ErrOrStderr()))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	appCtxMu.Lock()
	appCtx = &AppContext{
		Config:     cfg,
		Formatter:  formatter,
		Flags:      &globalFlags,
		Container:  container,
		ctx:        ctx,
		cancelFunc: cancel,
	}
	appCtxMu.Unlock()

	return nil
}

// loadConfig loads configuration from the specified file or default location.
func loadConfig(configPath string) (*config.Config, error) {
	loader, err := config.NewLoader("")
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}

	return loader.Load(configPath)
}

// GetAppContext returns the current application context.
// Returns nil if the app hasn't been initialized.
func GetAppContext() *AppContext {
	appCtxMu.RLock()
	defer appCtxMu.RUnlock()
	return appCtx
}

// GetFormatter returns the output formatter.
// Creates a default formatter if app context is not initialized.
func GetFormatter() *output.Formatter {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()

	if ctx != nil {
		return ctx.Formatter
	}
	return output.NewFormatter(output.WithWriter(os.Stderr), output.WithColor(output.IsColorSupported()))
}

// GetContainer returns the application container.
// Returns nil if the app hasn't been initialized.
func GetContainer() *application.Container {
	appCtxMu.RLock()
	ctx := appCtx
	appCtxMu.RUnlock()

	if ctx != nil {
		return ctx.Container
	}
	return nil
}

// requireApp returns the initialized application context or an error.
func requireApp() (*AppContext, error) {
	app := GetAppContext()
	if app == nil || app.Container == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return app, nil
}

// Shutdown cancels the application context and releases the container.
// Safe to call more than once.
func Shutdown() {
	appCtxMu.Lock()
	defer appCtxMu.Unlock()

	if appCtx == nil {
		return
	}
	if appCtx.cancelFunc != nil {
		appCtx.cancelFunc()
	}
	if appCtx.Container != nil {
		if err := appCtx.Container.Close(); err != nil {
			appCtx.Container.Logger().Warn("container close failed", "error", err)
		}
	}
	appCtx = nil
}

// Execute runs the root command with graceful shutdown support.
func Execute() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		rootCmd := NewRootCmd()
		errChan <- rootCmd.ExecuteContext(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			if !errors.Is(err, errReported) {
				GetFormatter().Error("%s", err.Error())
			}
			Shutdown()
			os.Exit(1)
		}
	case sig := <-sigChan:
		GetFormatter().Warning("Received signal %v, shutting down...", sig)
		cancel()
		// Servers drain on cancellation; give them a moment before exiting.
		select {
		case <-errChan:
		case <-time.After(5 * time.Second):
		}
		Shutdown()
		os.Exit(130) // Standard exit code for SIGINT
	}

	Shutdown()
}
