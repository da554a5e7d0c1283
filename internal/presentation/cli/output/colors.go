package output

import (
	"os"
)

// colorsEnabled caches the result of color support detection.
var colorsEnabled *bool

// IsColorSupported determines if color output should be enabled.
// It checks for NO_COLOR environment variable and terminal capability.
func IsColorSupported() bool {
	if colorsEnabled != nil {
		return *colorsEnabled
	}

	enabled := detectColorSupport()
	colorsEnabled = &enabled
	return enabled
}

// detectColorSupport checks environment variables and terminal capabilities.
func detectColorSupport() bool {
	// NO_COLOR takes precedence - if set to any value, disable colors
	// See https://no-color.org/
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}

	if _, exists := os.LookupEnv("FORCE_COLOR"); exists {
		return true
	}

	stat, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	if stat.Mode()&os.ModeCharDevice == 0 {
		return false
	}

	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// ResetColorDetection clears the cached color detection result.
func ResetColorDetection() {
	colorsEnabled = nil
}
