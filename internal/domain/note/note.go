// Package note provides the note entity managed by the notes server.
package note

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	domainErrors "github.com/jbctechsolutions/mcpnotes/internal/domain/errors"
)

// Title length bounds, in runes.
const (
	MinTitleLength = 1
	MaxTitleLength = 100
)

// Note is a single persisted note. Notes are created and deleted, never updated.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Tags      []string  `json:"tags"`
}

// New creates a validated Note. A nil tags slice is stored as empty.
func New(id, title, body string, tags []string, createdAt time.Time) (*Note, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domainErrors.NewError(domainErrors.CodeValidation, "note id is required", domainErrors.ErrNoteIDRequired)
	}

	n := utf8.RuneCountInString(title)
	if n < MinTitleLength {
		return nil, domainErrors.NewError(domainErrors.CodeValidation, "note title is required", domainErrors.ErrTitleRequired)
	}
	if n > MaxTitleLength {
		return nil, domainErrors.NewError(domainErrors.CodeValidation,
			fmt.Sprintf("note title exceeds %d characters", MaxTitleLength), domainErrors.ErrTitleTooLong)
	}
	if body == "" {
		return nil, domainErrors.NewError(domainErrors.CodeValidation, "note body is required", domainErrors.ErrBodyRequired)
	}

	tagsCopy := make([]string, len(tags))
	copy(tagsCopy, tags)

	return &Note{
		ID:        id,
		Title:     title,
		Body:      body,
		CreatedAt: createdAt.UTC(),
		Tags:      tagsCopy,
	}, nil
}

// Matches reports whether term occurs in the title or body, ignoring case.
func (n *Note) Matches(term string) bool {
	t := strings.ToLower(term)
	return strings.Contains(strings.ToLower(n.Title), t) ||
		strings.Contains(strings.ToLower(n.Body), t)
}

// TagLabel renders the tags as "[a, b]", or "" when there are none.
func (n *Note) TagLabel() string {
	if len(n.Tags) == 0 {
		return ""
	}
	return "[" + strings.Join(n.Tags, ", ") + "]"
}

// NotFound builds the domain error returned when no note has the given id.
func NotFound(id string) error {
	err := domainErrors.NewError(domainErrors.CodeNotFound,
		fmt.Sprintf("No note found with ID: %s", id), domainErrors.ErrNoteNotFound)
	return domainErrors.WithContext(err, "note_id", id)
}
