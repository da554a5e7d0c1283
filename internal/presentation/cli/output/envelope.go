package output

import (
	"github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
)

// EnvelopeJSON is the JSON rendering of a dispatch envelope.
type EnvelopeJSON struct {
	Operation   string `json:"operation"`
	IsError     bool   `json:"is_error"`
	Kind        string `json:"kind,omitempty"`
	Description string `json:"description,omitempty"`
	Text        string `json:"text"`
}

// Envelope prints the result of dispatching operation. Errors are
// rendered in red in text mode.
func (f *Formatter) Envelope(operation string, env mcp.Envelope) error {
	if f.IsJSON() {
		out := EnvelopeJSON{Operation: operation, IsError: env.IsError(), Text: env.Text()}
		if env.Error != nil {
			out.Kind = string(env.Error.Kind)
		}
		if env.Result != nil {
			out.Description = env.Result.Description
		}
		return f.JSON(out)
	}

	if env.IsError() {
		return f.Println("%s", f.Colorize(env.Text(), ColorRed))
	}
	return f.Println("%s", env.Text())
}
