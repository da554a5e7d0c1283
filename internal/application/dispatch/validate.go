package dispatch

import (
	"fmt"
	"unicode/utf8"

	"github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
)

// Validate checks bag against the operation's declared fields and builds
// typed arguments. Fields are checked in declaration order and the first
// failure is returned as a *mcp.ValidationError. Undeclared keys are ignored.
func Validate(op mcp.Operation, bag map[string]any) (mcp.Args, error) {
	values := make(map[string]any, len(op.Fields))

	for _, f := range op.Fields {
		raw, present := bag[f.Name]
		if present && raw == nil {
			present = false
		}

		if !present {
			if f.Required {
				return mcp.Args{}, &mcp.ValidationError{Field: f.Name, Reason: "missing"}
			}
			if f.Default != nil {
				values[f.Name] = f.Default
			}
			continue
		}

		v, err := coerce(f, raw)
		if err != nil {
			return mcp.Args{}, err
		}
		values[f.Name] = v
	}

	return mcp.NewArgs(values), nil
}

func coerce(f mcp.Field, raw any) (any, error) {
	switch f.Type {
	case mcp.FieldString:
		s, ok := raw.(string)
		if !ok {
			return nil, &mcp.ValidationError{Field: f.Name, Reason: fmt.Sprintf("expected string, got %s", typeName(raw))}
		}
		n := utf8.RuneCountInString(s)
		if f.MinLength > 0 && n < f.MinLength {
			if f.MinLength == 1 {
				return nil, &mcp.ValidationError{Field: f.Name, Reason: "must not be empty"}
			}
			return nil, &mcp.ValidationError{Field: f.Name, Reason: "must be at least " + characters(f.MinLength)}
		}
		if f.MaxLength > 0 && n > f.MaxLength {
			return nil, &mcp.ValidationError{Field: f.Name, Reason: "must be at most " + characters(f.MaxLength)}
		}
		return s, nil

	case mcp.FieldStringArray:
		switch v := raw.(type) {
		case []string:
			out := make([]string, len(v))
			copy(out, v)
			return out, nil
		case []any:
			out := make([]string, 0, len(v))
			for i, elem := range v {
				s, ok := elem.(string)
				if !ok {
					return nil, &mcp.ValidationError{Field: f.Name, Reason: fmt.Sprintf("element %d: expected string, got %s", i, typeName(elem))}
				}
				out = append(out, s)
			}
			return out, nil
		default:
			return nil, &mcp.ValidationError{Field: f.Name, Reason: fmt.Sprintf("expected array of strings, got %s", typeName(raw))}
		}
	}

	return nil, &mcp.ValidationError{Field: f.Name, Reason: fmt.Sprintf("unsupported field type %q", f.Type)}
}

// typeName names a decoded JSON value's type for error messages.
func characters(n int) string {
	if n == 1 {
		return "1 character"
	}
	return fmt.Sprintf("%d characters", n)
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, int32:
		return "number"
	case []any, []string:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
