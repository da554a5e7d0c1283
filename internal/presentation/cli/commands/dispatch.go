package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
)

// errReported marks a failure whose details were already printed.
var errReported = errors.New("operation failed")

// dispatchAndPrint runs an operation on server's router and prints the
// envelope. An error envelope yields errReported.
func dispatchAndPrint(cmd *cobra.Command, server string, kind mcp.Kind, operation string, bag map[string]any) error {
	app, err := requireApp()
	if err != nil {
		return err
	}

	router, err := app.Container.Router(server)
	if err != nil {
		return err
	}

	env := router.DispatchKind(app.Context(), kind, operation, bag)
	if err := app.Formatter.Envelope(operation, env); err != nil {
		return err
	}
	if env.IsError() {
		return errReported
	}
	return nil
}
