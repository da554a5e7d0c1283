package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/mcpnotes/internal/application"
	"github.com/jbctechsolutions/mcpnotes/internal/application/notes"
	"github.com/jbctechsolutions/mcpnotes/internal/application/ports"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/config"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/watcher"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the note list whenever the store changes",
		Long: `Watch the note store file and reprint the note list after every
change, including writes made by a running notes server.

Only file-backed stores (json, sqlite) can be watched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd)
		},
	}
}

func runWatch(cmd *cobra.Command) error {
	app, err := requireApp()
	if err != nil {
		return err
	}

	store, ok := app.Container.Store().(ports.StoreDescriber)
	if !ok || store.Backend() == config.BackendMemory {
		return fmt.Errorf("the configured store has no file to watch")
	}

	w, err := watcher.New(watcher.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Watch(store.Location()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", store.Location(), err)
	}

	ctx := app.Context()
	logger := app.Container.Logger()
	f := app.Formatter

	f.Info("Watching %s (Ctrl+C to stop)", store.Location())
	if err := dispatchAndPrint(cmd, application.ServerNotes, "", notes.OpList, nil); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			logger.Debug("note store changed", "path", ev.Path, "event", ev.Type)
			f.Println("%s", f.Dim(fmt.Sprintf("── %s %s", ev.Timestamp.Format("15:04:05"), ev.Type)))
			if err := dispatchAndPrint(cmd, application.ServerNotes, "", notes.OpList, nil); err != nil {
				return err
			}
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
