package commands

import (
	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/mcpnotes/internal/application"
	"github.com/jbctechsolutions/mcpnotes/internal/application/notes"
	"github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
)

// NewNotesCmd creates the notes command group.
func NewNotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage notes directly",
		Long: `Create, list, search and delete notes without an MCP client.

Every subcommand goes through the same validation and rendering as the
notes server's tools.`,
	}

	cmd.AddCommand(newNotesCreateCmd())
	cmd.AddCommand(newNotesListCmd())
	cmd.AddCommand(newNotesSearchCmd())
	cmd.AddCommand(newNotesDeleteCmd())

	return cmd
}

func newNotesCreateCmd() *cobra.Command {
	var (
		title string
		body  string
		tags  []string
	)

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a note",
		Args:    cobra.NoArgs,
		Example: `  mcpnotes notes create --title "Buy milk" --body "2% milk" --tag errands`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bag := map[string]any{}
			if cmd.Flags().Changed("title") {
				bag["title"] = title
			}
			if cmd.Flags().Changed("body") {
				bag["body"] = body
			}
			if cmd.Flags().Changed("tag") {
				bag["tags"] = toAnySlice(tags)
			}
			return dispatchAndPrint(cmd, application.ServerNotes, mcp.KindTool, notes.OpCreate, bag)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "note title (1-100 characters)")
	cmd.Flags().StringVarP(&body, "body", "b", "", "note body")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag to attach (repeatable)")

	return cmd
}

func newNotesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all notes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatchAndPrint(cmd, application.ServerNotes, mcp.KindTool, notes.OpList, nil)
		},
	}
}

func newNotesSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search notes by title or body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatchAndPrint(cmd, application.ServerNotes, mcp.KindTool, notes.OpSearch, map[string]any{"term": args[0]})
		},
	}
}

func newNotesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a note by ID",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatchAndPrint(cmd, application.ServerNotes, mcp.KindTool, notes.OpDelete, map[string]any{"id": args[0]})
		},
	}
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
