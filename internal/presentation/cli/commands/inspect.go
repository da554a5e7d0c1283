package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	adaptermcp "github.com/jbctechsolutions/mcpnotes/internal/adapters/mcp"
	domainMCP "github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
	"github.com/jbctechsolutions/mcpnotes/internal/presentation/cli/output"
)

type inspectOptions struct {
	Call      string
	Prompt    string
	Arguments string
}

// InspectReport is the JSON rendering of an inspect run.
type InspectReport struct {
	Server       *domainMCP.InitializeResult  `json:"server"`
	Tools        []domainMCP.ToolDefinition   `json:"tools"`
	Prompts      []domainMCP.PromptDefinition `json:"prompts"`
	ToolResult   *domainMCP.ToolCallResult    `json:"tool_result,omitempty"`
	PromptResult *domainMCP.PromptGetResult   `json:"prompt_result,omitempty"`
}

// NewInspectCmd creates the inspect command.
func NewInspectCmd() *cobra.Command {
	var opts inspectOptions

	cmd := &cobra.Command{
		Use:   "inspect -- <command> [args...]",
		Short: "Start an MCP server process and list what it offers",
		Long: `Launch any stdio MCP server, perform the handshake and list its tools
and prompts. Optionally call one tool or render one prompt.

Examples:
  mcpnotes inspect -- mcpnotes serve notes
  mcpnotes inspect --call search_notes --args '{"term":"milk"}' -- mcpnotes serve notes
  mcpnotes inspect --prompt explain_code --args '{"code":"x++"}' -- mcpnotes serve prompts`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Call, "call", "", "tool to call after listing")
	cmd.Flags().StringVar(&opts.Prompt, "prompt", "", "prompt to render after listing")
	cmd.Flags().StringVar(&opts.Arguments, "args", "{}", "JSON object of arguments for --call or --prompt")
	cmd.MarkFlagsMutuallyExclusive("call", "prompt")

	return cmd
}

func runInspect(args []string, opts inspectOptions) error {
	app, err := requireApp()
	if err != nil {
		return err
	}

	arguments, err := parseArguments(opts.Arguments)
	if err != nil {
		return err
	}

	client, err := adaptermcp.StartProcess(app.Context(), args[0], args[1:]...)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	return inspectClient(app.Context(), client, opts, arguments, app.Formatter)
}

func parseArguments(raw string) (map[string]any, error) {
	var arguments map[string]any
	if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
		return nil, fmt.Errorf("--args must be a JSON object: %w", err)
	}
	if arguments == nil {
		arguments = map[string]any{}
	}
	return arguments, nil
}

// inspectClient runs the handshake, listing and optional invocation on an
// already connected client.
func inspectClient(ctx context.Context, client *adaptermcp.Client, opts inspectOptions, arguments map[string]any, f *output.Formatter) error {
	report := InspectReport{}

	info, err := client.Initialize(ctx, Version)
	if err != nil {
		return err
	}
	report.Server = info

	if info.Capabilities.Tools != nil {
		if report.Tools, err = client.ListTools(ctx); err != nil {
			return fmt.Errorf("tools/list: %w", err)
		}
	}
	if info.Capabilities.Prompts != nil {
		if report.Prompts, err = client.ListPrompts(ctx); err != nil {
			return fmt.Errorf("prompts/list: %w", err)
		}
	}

	switch {
	case opts.Call != "":
		if report.ToolResult, err = client.CallTool(ctx, opts.Call, arguments); err != nil {
			return err
		}
	case opts.Prompt != "":
		stringArgs := make(map[string]string, len(arguments))
		for k, v := range arguments {
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("prompt argument %q must be a string", k)
			}
			stringArgs[k] = s
		}
		if report.PromptResult, err = client.GetPrompt(ctx, opts.Prompt, stringArgs); err != nil {
			return err
		}
	}

	if f.IsJSON() {
		return f.JSON(report)
	}
	return printInspectReport(f, report)
}

func printInspectReport(f *output.Formatter, report InspectReport) error {
	name, version := "unknown", ""
	if report.Server.ServerInfo != nil {
		name, version = report.Server.ServerInfo.Name, report.Server.ServerInfo.Version
	}

	f.Header(name)
	f.Item("Version", version)
	f.Item("Protocol", report.Server.ProtocolVersion)
	if report.Server.Instructions != "" {
		f.Item("Instructions", report.Server.Instructions)
	}
	f.Println("")

	if len(report.Tools) > 0 {
		table := output.TableData{Headers: []string{"TOOL", "DESCRIPTION"}}
		for _, tool := range report.Tools {
			table.Rows = append(table.Rows, []string{tool.Name, tool.Description})
		}
		if err := f.Table(table); err != nil {
			return err
		}
		f.Println("")
	}

	if len(report.Prompts) > 0 {
		table := output.TableData{Headers: []string{"PROMPT", "ARGUMENTS", "DESCRIPTION"}}
		for _, prompt := range report.Prompts {
			var names []string
			for _, arg := range prompt.Arguments {
				if arg.Required {
					names = append(names, arg.Name)
				} else {
					names = append(names, "["+arg.Name+"]")
				}
			}
			table.Rows = append(table.Rows, []string{prompt.Name, strings.Join(names, " "), prompt.Description})
		}
		if err := f.Table(table); err != nil {
			return err
		}
		f.Println("")
	}

	if r := report.ToolResult; r != nil {
		if r.IsError {
			f.Println("%s", f.Colorize(r.TextContent(), output.ColorRed))
		} else {
			f.Println("%s", r.TextContent())
		}
	}
	if r := report.PromptResult; r != nil {
		for _, msg := range r.Messages {
			f.Println("%s %s", f.Bold(msg.Role+":"), msg.Content.Text)
		}
	}
	return nil
}
