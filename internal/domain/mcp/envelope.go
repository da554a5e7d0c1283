package mcp

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a failed envelope.
type ErrorKind string

const (
	// KindNotFound means an operation name or entity id was not resolved.
	KindNotFound ErrorKind = "NotFound"

	// KindInvalidArgument means a field failed validation.
	KindInvalidArgument ErrorKind = "InvalidArgument"

	// KindInternal means an unexpected failure occurred while handling.
	KindInternal ErrorKind = "Internal"
)

// ErrorPrefix marks the rendered text of a failed envelope.
const ErrorPrefix = "❌ "

// Result is the success payload of an operation.
type Result struct {
	Description string
	Content     []ContentBlock
}

// TextResult builds a single-block text result.
func TextResult(text string) *Result {
	return &Result{Content: []ContentBlock{TextBlock(text)}}
}

// Text returns the concatenated text of all text blocks.
func (r *Result) Text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}

// EnvelopeError is the failure variant of an envelope.
type EnvelopeError struct {
	Kind    ErrorKind
	Message string
}

// Envelope is the uniform response of a dispatch. Exactly one of Result
// and Error is non-nil.
type Envelope struct {
	Result *Result
	Error  *EnvelopeError
}

// Success wraps a result. A nil result becomes an empty one.
func Success(r *Result) Envelope {
	if r == nil {
		r = &Result{}
	}
	return Envelope{Result: r}
}

// Failure builds an error envelope.
func Failure(kind ErrorKind, format string, args ...any) Envelope {
	return Envelope{Error: &EnvelopeError{Kind: kind, Message: fmt.Sprintf(format, args...)}}
}

// IsError reports whether the envelope carries the error variant.
func (e Envelope) IsError() bool {
	return e.Error != nil
}

// Text renders the envelope as a human-readable message.
func (e Envelope) Text() string {
	if e.Error != nil {
		return ErrorPrefix + e.Error.Message
	}
	if e.Result == nil {
		return ""
	}
	return e.Result.Text()
}

// ToolResult converts the envelope into a tools/call result.
func (e Envelope) ToolResult() ToolCallResult {
	if e.Error != nil {
		return ToolCallResult{
			Content: []ContentBlock{TextBlock(e.Text())},
			IsError: true,
		}
	}
	content := e.Result.Content
	if content == nil {
		content = []ContentBlock{}
	}
	return ToolCallResult{Content: content}
}

// PromptResult converts a success envelope into a prompts/get result with a
// single user message per content block.
func (e Envelope) PromptResult() PromptGetResult {
	res := PromptGetResult{Messages: []PromptMessage{}}
	if e.Result == nil {
		return res
	}
	res.Description = e.Result.Description
	for _, block := range e.Result.Content {
		res.Messages = append(res.Messages, PromptMessage{Role: "user", Content: block})
	}
	return res
}

// ValidationError reports that a single argument field failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}
