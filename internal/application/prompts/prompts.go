// Package prompts implements the code-assistance prompt templates.
package prompts

import (
	"context"
	"fmt"

	"github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
)

// Operation names.
const (
	OpReview  = "review_code"
	OpExplain = "explain_code"
)

// DefaultLevel is the explanation level used when none is given.
const DefaultLevel = "intermediate"

// Identity is the server identity of the prompts server.
func Identity(version string) mcp.ServerIdentity {
	return mcp.ServerIdentity{
		Name:         "code-prompts-mcp",
		Version:      version,
		Instructions: "A server offering prompts for coding help.",
	}
}

type reviewArgs struct {
	Language string
	Code     string
}

type explainArgs struct {
	Code  string
	Level string
}

// Operations returns the prompt operations in listing order.
func Operations() []mcp.Operation {
	return []mcp.Operation{
		{
			Name:        OpReview,
			Kind:        mcp.KindPrompt,
			Description: "Review code for bugs, improvements and good practices.",
			Fields: []mcp.Field{
				{Name: "language", Description: "Programming language of the code to review", Type: mcp.FieldString, Required: true},
				{Name: "code", Description: "Code snippet that needs review", Type: mcp.FieldString, Required: true},
			},
			Handler: handleReview,
		},
		{
			Name:        OpExplain,
			Kind:        mcp.KindPrompt,
			Description: "Explain what a piece of code does.",
			Fields: []mcp.Field{
				{Name: "code", Description: "Code to explain", Type: mcp.FieldString, Required: true},
				{Name: "level", Description: "Level of detail: basic|intermediate|advanced", Type: mcp.FieldString, Default: DefaultLevel},
			},
			Handler: handleExplain,
		},
	}
}

func handleReview(_ context.Context, args mcp.Args) (*mcp.Result, error) {
	in := reviewArgs{Language: args.String("language"), Code: args.String("code")}
	return &mcp.Result{
		Description: fmt.Sprintf("Code review (%s)", in.Language),
		Content:     []mcp.ContentBlock{mcp.TextBlock(Review(in.Language, in.Code))},
	}, nil
}

func handleExplain(_ context.Context, args mcp.Args) (*mcp.Result, error) {
	in := explainArgs{Code: args.String("code"), Level: args.String("level")}
	if in.Level == "" {
		in.Level = DefaultLevel
	}
	return &mcp.Result{
		Description: fmt.Sprintf("Code explanation (%s level)", in.Level),
		Content:     []mcp.ContentBlock{mcp.TextBlock(Explain(in.Code, in.Level))},
	}, nil
}

// Review renders the code review request.
func Review(language, code string) string {
	return fmt.Sprintf(`Please review the following %s code and provide:

1. Detected errors
2. Suggested improvements
3. Security considerations
4. Readability comments

`+"```%s\n%s\n```\n", language, language, code)
}

// Explain renders the code explanation request. level is free text.
func Explain(code, level string) string {
	return fmt.Sprintf("Explain what the following code does. The explanation should be at %s level.\n\n```\n%s\n```\n", level, code)
}
