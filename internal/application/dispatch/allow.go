package dispatch

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// AllowList filters operation names by glob patterns, e.g. "*_note" or
// "{list,search}_notes". A nil or empty list allows everything.
type AllowList struct {
	patterns []string
}

// NewAllowList validates patterns and builds an AllowList.
func NewAllowList(patterns []string) (*AllowList, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid operation pattern %q", p)
		}
	}
	cp := make([]string, len(patterns))
	copy(cp, patterns)
	return &AllowList{patterns: cp}, nil
}

// Allows reports whether name matches at least one pattern.
func (a *AllowList) Allows(name string) bool {
	if a == nil || len(a.patterns) == 0 {
		return true
	}
	for _, p := range a.patterns {
		if ok, err := doublestar.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}

// Patterns returns a copy of the configured patterns.
func (a *AllowList) Patterns() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.patterns))
	copy(out, a.patterns)
	return out
}
