package commands

import (
	"github.com/spf13/cobra"

	"github.com/jbctechsolutions/mcpnotes/internal/application"
	"github.com/jbctechsolutions/mcpnotes/internal/application/prompts"
	"github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
)

// NewPromptsCmd creates the prompts command group.
func NewPromptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Render code prompts directly",
	}

	cmd.AddCommand(newPromptsReviewCmd())
	cmd.AddCommand(newPromptsExplainCmd())

	return cmd
}

func newPromptsReviewCmd() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:     "review <code>",
		Short:   "Render the code review prompt",
		Args:    cobra.ExactArgs(1),
		Example: `  mcpnotes prompts review --language go 'func main() {}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bag := map[string]any{"code": args[0]}
			if cmd.Flags().Changed("language") {
				bag["language"] = language
			}
			return dispatchAndPrint(cmd, application.ServerPrompts, mcp.KindPrompt, prompts.OpReview, bag)
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "programming language of the code")

	return cmd
}

func newPromptsExplainCmd() *cobra.Command {
	var level string

	cmd := &cobra.Command{
		Use:   "explain <code>",
		Short: "Render the code explanation prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bag := map[string]any{"code": args[0]}
			if cmd.Flags().Changed("level") {
				bag["level"] = level
			}
			return dispatchAndPrint(cmd, application.ServerPrompts, mcp.KindPrompt, prompts.OpExplain, bag)
		},
	}

	cmd.Flags().StringVar(&level, "level", prompts.DefaultLevel, "level of detail: basic, intermediate, advanced")

	return cmd
}
