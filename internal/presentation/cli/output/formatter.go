// Package output provides CLI output formatting utilities.
// It supports text, table and JSON output with optional ANSI colors.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode/utf8"
)

// Format represents the output format type.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Color represents ANSI color codes for terminal output.
type Color string

const (
	ColorReset  Color = "\033[0m"
	ColorRed    Color = "\033[31m"
	ColorGreen  Color = "\033[32m"
	ColorYellow Color = "\033[33m"
	ColorBlue   Color = "\033[34m"
	ColorCyan   Color = "\033[36m"
	ColorBold   Color = "\033[1m"
	ColorDim    Color = "\033[2m"
)

// Formatter writes CLI output in the selected format. It is safe for
// concurrent use.
type Formatter struct {
	mu           sync.Mutex
	writer       io.Writer
	format       Format
	colorEnabled bool
}

// Option is a functional option for configuring a Formatter.
type Option func(*Formatter)

// NewFormatter creates a new Formatter with the given options.
func NewFormatter(opts ...Option) *Formatter {
	f := &Formatter{
		writer:       os.Stdout,
		format:       FormatText,
		colorEnabled: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// WithWriter sets the output writer.
func WithWriter(w io.Writer) Option {
	return func(f *Formatter) {
		f.writer = w
	}
}

// WithFormat sets the output format.
func WithFormat(format Format) Option {
	return func(f *Formatter) {
		f.format = format
	}
}

// WithColor enables or disables colored output.
func WithColor(enabled bool) Option {
	return func(f *Formatter) {
		f.colorEnabled = enabled
	}
}

// Format returns the current output format.
func (f *Formatter) Format() Format {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.format
}

// IsJSON reports whether output is JSON.
func (f *Formatter) IsJSON() bool {
	return f.Format() == FormatJSON
}

// Writer returns the underlying writer.
func (f *Formatter) Writer() io.Writer {
	return f.writer
}

// Println writes formatted output with a newline.
func (f *Formatter) Println(format string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := fmt.Fprintf(f.writer, format+"\n", args...)
	return err
}

// Colorize wraps text with ANSI color codes if color is enabled.
func (f *Formatter) Colorize(text string, color Color) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.colorEnabled {
		return text
	}
	return string(color) + text + string(ColorReset)
}

// Success prints a success message in green.
func (f *Formatter) Success(format string, args ...any) error {
	return f.Println("%s", f.Colorize("✓ "+fmt.Sprintf(format, args...), ColorGreen))
}

// Error prints an error message in red.
func (f *Formatter) Error(format string, args ...any) error {
	return f.Println("%s", f.Colorize("✗ "+fmt.Sprintf(format, args...), ColorRed))
}

// Warning prints a warning message in yellow.
func (f *Formatter) Warning(format string, args ...any) error {
	return f.Println("%s", f.Colorize("⚠ "+fmt.Sprintf(format, args...), ColorYellow))
}

// Info prints an info message in blue.
func (f *Formatter) Info(format string, args ...any) error {
	return f.Println("%s", f.Colorize("ℹ "+fmt.Sprintf(format, args...), ColorBlue))
}

// Bold renders text in bold.
func (f *Formatter) Bold(text string) string {
	return f.Colorize(text, ColorBold)
}

// Dim renders text in dim/muted style.
func (f *Formatter) Dim(text string) string {
	return f.Colorize(text, ColorDim)
}

// Header outputs a section header with underline.
func (f *Formatter) Header(msg string) error {
	if err := f.Println("%s", f.Bold(msg)); err != nil {
		return err
	}
	return f.Println("%s", strings.Repeat("─", utf8.RuneCountInString(msg)))
}

// Item outputs a key-value pair for structured display.
func (f *Formatter) Item(key, value string) error {
	return f.Println("  %s: %s", f.Dim(key), value)
}

// TableData represents data for table formatting.
type TableData struct {
	Headers []string
	Rows    [][]string
}

// Table writes rows as left-aligned columns under a bold header.
func (f *Formatter) Table(data TableData) error {
	if len(data.Headers) == 0 {
		return nil
	}

	widths := make([]int, len(data.Headers))
	for i, h := range data.Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range data.Rows {
		for i, cell := range row {
			if i < len(widths) && utf8.RuneCountInString(cell) > widths[i] {
				widths[i] = utf8.RuneCountInString(cell)
			}
		}
	}

	join := func(cells []string) string {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = cell + strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	separators := make([]string, len(widths))
	for i, w := range widths {
		separators[i] = strings.Repeat("-", w)
	}

	if err := f.Println("%s", f.Bold(join(data.Headers))); err != nil {
		return err
	}
	if err := f.Println("%s", join(separators)); err != nil {
		return err
	}
	for _, row := range data.Rows {
		if err := f.Println("%s", join(row)); err != nil {
			return err
		}
	}
	return nil
}

// JSON writes data as indented JSON.
func (f *Formatter) JSON(data any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	encoder := json.NewEncoder(f.writer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ParseFormat parses a string into a Format type.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "text", "":
		return FormatText, nil
	default:
		return FormatText, fmt.Errorf("unknown format: %s", s)
	}
}
