package commands

import (
	"github.com/spf13/cobra"

	adaptermcp "github.com/jbctechsolutions/mcpnotes/internal/adapters/mcp"
	"github.com/jbctechsolutions/mcpnotes/internal/application"
)

type serveOptions struct {
	HTTP bool
	Addr string
}

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:       "serve <notes|prompts>",
		Short:     "Run an MCP server",
		ValidArgs: []string{application.ServerNotes, application.ServerPrompts},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Long: `Run the notes or prompts MCP server.

By default the server speaks newline-delimited JSON-RPC on stdin/stdout
and exits when the input closes or a shutdown request arrives. With
--http the server listens on the configured address and accepts
JSON-RPC requests via POST /mcp.

Examples:
  mcpnotes serve notes
  mcpnotes serve prompts --http --addr 127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.HTTP, "http", false, "serve over HTTP instead of stdio")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "HTTP listen address (default from config)")

	return cmd
}

func runServe(cmd *cobra.Command, server string, opts serveOptions) error {
	app, err := requireApp()
	if err != nil {
		return err
	}

	router, err := app.Container.Router(server)
	if err != nil {
		return err
	}
	logger := app.Container.Logger()
	handler := adaptermcp.NewHandler(router, logger)

	if !opts.HTTP {
		stdio := adaptermcp.NewStdioServer(handler, cmd.InOrStdin(), cmd.OutOrStdout(), logger)
		return stdio.Serve(app.Context())
	}

	addr := opts.Addr
	if addr == "" {
		addr = app.Config.Transport.HTTPAddr
	}

	httpCfg := adaptermcp.HTTPConfig{
		Addr:    addr,
		Metrics: app.Container.Metrics(),
		Logger:  logger,
	}
	if rl := app.Config.Transport.RateLimit; rl.Enabled {
		httpCfg.RateLimit = adaptermcp.RateLimitConfig{
			RPS:     rl.RPS,
			Burst:   rl.Burst,
			IdleTTL: rl.IdleTTL,
		}
	}

	fmtr := GetFormatter()
	fmtr.Info("%s listening on http://%s%s", router.Identity().Name, addr, adaptermcp.PathMCP)
	if app.Container.Metrics() != nil {
		fmtr.Info("metrics at http://%s%s", addr, adaptermcp.PathMetrics)
	}

	return adaptermcp.NewHTTPServer(handler, httpCfg).Run(app.Context())
}
