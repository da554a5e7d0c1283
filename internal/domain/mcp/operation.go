package mcp

import (
	"context"
	"fmt"
	"strings"
)

// Kind distinguishes how an operation is exposed to clients.
type Kind string

const (
	// KindTool operations are listed by tools/list and invoked by tools/call.
	KindTool Kind = "tool"

	// KindPrompt operations are listed by prompts/list and rendered by prompts/get.
	KindPrompt Kind = "prompt"
)

// FieldType is the declared type of an operation argument.
type FieldType string

const (
	FieldString      FieldType = "string"
	FieldStringArray FieldType = "string_array"
)

// Field declares one named argument of an operation and its constraints.
// MinLength and MaxLength count runes; zero means unbounded.
type Field struct {
	Name        string
	Description string
	Type        FieldType
	Required    bool
	MinLength   int
	MaxLength   int
	Default     any
}

// Handler executes an operation with arguments that already passed validation.
type Handler func(ctx context.Context, args Args) (*Result, error)

// Operation is a named, independently invocable unit of the router's registry.
type Operation struct {
	Name        string
	Kind        Kind
	Description string
	Fields      []Field
	Handler     Handler
}

// Validate checks that the operation declaration is usable.
func (o *Operation) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidOperation)
	}
	if o.Kind != KindTool && o.Kind != KindPrompt {
		return fmt.Errorf("%w: %s: unknown kind %q", ErrInvalidOperation, o.Name, o.Kind)
	}
	if o.Handler == nil {
		return fmt.Errorf("%w: %s: handler is required", ErrInvalidOperation, o.Name)
	}

	seen := make(map[string]bool, len(o.Fields))
	for _, f := range o.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: %s: field name is required", ErrInvalidOperation, o.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidOperation, o.Name, f.Name)
		}
		seen[f.Name] = true

		if f.Type != FieldString && f.Type != FieldStringArray {
			return fmt.Errorf("%w: %s: field %q has unknown type %q", ErrInvalidOperation, o.Name, f.Name, f.Type)
		}
		if f.MaxLength > 0 && f.MinLength > f.MaxLength {
			return fmt.Errorf("%w: %s: field %q min length exceeds max length", ErrInvalidOperation, o.Name, f.Name)
		}
	}
	return nil
}

// Clone returns a copy of the operation that shares no slices with o.
func (o Operation) Clone() Operation {
	fields := make([]Field, len(o.Fields))
	copy(fields, o.Fields)
	o.Fields = fields
	return o
}

// Args holds validated, type-coerced argument values keyed by field name.
type Args struct {
	values map[string]any
}

// NewArgs wraps already validated values.
func NewArgs(values map[string]any) Args {
	if values == nil {
		values = make(map[string]any)
	}
	return Args{values: values}
}

// Has reports whether a value is present for name.
func (a Args) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// String returns the string value for name, or "" if absent.
func (a Args) String(name string) string {
	s, _ := a.values[name].(string)
	return s
}

// Strings returns the string slice value for name, or nil if absent.
func (a Args) Strings(name string) []string {
	v, _ := a.values[name].([]string)
	if v == nil {
		return nil
	}
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// Len returns the number of values held.
func (a Args) Len() int {
	return len(a.values)
}
