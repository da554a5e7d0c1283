package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/mcpnotes/internal/application"
	"github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
	"github.com/jbctechsolutions/mcpnotes/internal/presentation/cli/output"
)

// OperationInfo describes an exposed operation for JSON output.
type OperationInfo struct {
	Server      string   `json:"server"`
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Description string   `json:"description"`
	Required    []string `json:"required"`
	Optional    []string `json:"optional"`
}

// NewToolsCmd creates the tools command.
func NewToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "tools [notes|prompts]",
		Short:     "List the operations each server exposes",
		Long:      `List tools and prompts after the configured allow list is applied.`,
		ValidArgs: []string{application.ServerNotes, application.ServerPrompts},
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			servers := []string{application.ServerNotes, application.ServerPrompts}
			if len(args) == 1 {
				servers = args
			}
			return runTools(servers)
		},
	}
}

func runTools(servers []string) error {
	app, err := requireApp()
	if err != nil {
		return err
	}

	var infos []OperationInfo
	for _, server := range servers {
		router, err := app.Container.Router(server)
		if err != nil {
			return err
		}
		for _, op := range router.Operations("") {
			infos = append(infos, describeOperation(server, op))
		}
	}

	f := app.Formatter
	if f.IsJSON() {
		if infos == nil {
			infos = []OperationInfo{}
		}
		return f.JSON(infos)
	}

	if len(infos) == 0 {
		return f.Warning("No operations exposed")
	}

	table := output.TableData{Headers: []string{"SERVER", "NAME", "KIND", "ARGUMENTS", "DESCRIPTION"}}
	for _, info := range infos {
		arguments := info.Required
		for _, o := range info.Optional {
			arguments = append(arguments, "["+o+"]")
		}
		table.Rows = append(table.Rows, []string{info.Server, info.Name, info.Kind, strings.Join(arguments, " "), info.Description})
	}
	return f.Table(table)
}

func describeOperation(server string, op mcp.Operation) OperationInfo {
	info := OperationInfo{
		Server:      server,
		Name:        op.Name,
		Kind:        string(op.Kind),
		Description: op.Description,
		Required:    []string{},
		Optional:    []string{},
	}
	for _, field := range op.Fields {
		if field.Required {
			info.Required = append(info.Required, field.Name)
		} else {
			info.Optional = append(info.Optional, field.Name)
		}
	}
	return info
}
