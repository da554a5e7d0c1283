package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/mcpnotes/internal/application"
	"github.com/jbctechsolutions/mcpnotes/internal/application/dispatch"
)

// NewReplCmd creates the repl command.
func NewReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "repl [notes|prompts]",
		Short:     "Dispatch operations interactively",
		ValidArgs: []string{application.ServerNotes, application.ServerPrompts},
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		Long: `Start an interactive session against one server's router.

Each line names an operation followed by key=value arguments. Values that
parse as JSON are passed as JSON, anything else as a string. Quote values
that contain spaces.

  create_note title="Buy milk" body="2% milk" tags='["errands"]'
  search_notes term=milk

Commands:
  /tools   list operations
  /quit    leave the session`,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := application.ServerNotes
			if len(args) == 1 {
				server = args[0]
			}
			return runRepl(cmd, server)
		},
	}
}

func runRepl(cmd *cobra.Command, server string) error {
	app, err := requireApp()
	if err != nil {
		return err
	}

	router, err := app.Container.Router(server)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:       server + "> ",
		AutoComplete: replCompleter(router),
		Stdin:        io.NopCloser(cmd.InOrStdin()),
		Stdout:       cmd.OutOrStdout(),
		Stderr:       cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("could not create readline: %w", err)
	}
	defer rl.Close()

	f := app.Formatter
	ctx := app.Context()
	f.Info("%s %s. Type /tools to list operations, /quit to exit.", router.Identity().Name, router.Identity().Version)

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil
		case "/tools":
			if err := runTools([]string{server}); err != nil {
				f.Error("%s", err.Error())
			}
			continue
		}

		name, bag, err := parseReplLine(line)
		if err != nil {
			f.Error("%s", err.Error())
			continue
		}

		env := router.Dispatch(ctx, name, bag)
		if err := f.Envelope(name, env); err != nil {
			return err
		}
	}

	return nil
}

func replCompleter(router *dispatch.Router) *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("/tools"),
		readline.PcItem("/quit"),
	}
	for _, op := range router.Operations("") {
		children := make([]readline.PrefixCompleterInterface, 0, len(op.Fields))
		for _, field := range op.Fields {
			children = append(children, readline.PcItem(field.Name+"="))
		}
		items = append(items, readline.PcItem(op.Name, children...))
	}
	return readline.NewPrefixCompleter(items...)
}

// parseReplLine splits "name k=v ..." into an operation name and an
// argument bag. Values that are valid JSON decode as JSON.
func parseReplLine(line string) (string, map[string]any, error) {
	fields, err := splitFields(line)
	if err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty input")
	}

	bag := make(map[string]any, len(fields)-1)
	for _, field := range fields[1:] {
		key, raw, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			return "", nil, fmt.Errorf("expected key=value, got %q", field)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		bag[key] = value
	}
	return fields[0], bag, nil
}

// splitFields splits on whitespace, keeping quoted runs together.
// Quotes are removed; a backslash escapes the next rune inside double quotes.
func splitFields(line string) ([]string, error) {
	var (
		fields  []string
		current strings.Builder
		quote   rune
		inField bool
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case quote != 0:
			switch {
			case r == '\\' && quote == '"':
				escaped = true
			case r == quote:
				quote = 0
			default:
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inField = true
		case r == ' ' || r == '\t':
			if inField {
				fields = append(fields, current.String())
				current.Reset()
				inField = false
			}
		default:
			current.WriteRune(r)
			inField = true
		}
	}

	if quote != 0 || escaped {
		return nil, fmt.Errorf("unterminated quote")
	}
	if inField {
		fields = append(fields, current.String())
	}
	return fields, nil
}
