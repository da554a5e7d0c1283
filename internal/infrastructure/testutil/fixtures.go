package testutil

import (
	"time"

	"github.com/jbctechsolutions/mcpnotes/internal/domain/note"
)

// FixedTime is the creation time of fixture notes.
var FixedTime = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

// NewTestNote returns a note whose ID and creation time agree, offset
// by seq microseconds from FixedTime.
func NewTestNote(seq int64, title, body string, tags ...string) *note.Note {
	micros := FixedTime.UnixMicro() + seq
	if tags == nil {
		tags = []string{}
	}
	return &note.Note{
		ID:        note.FormatID(micros),
		Title:     title,
		Body:      body,
		CreatedAt: time.UnixMicro(micros).UTC(),
		Tags:      tags,
	}
}

// SampleNotes returns three notes, two of which mention milk.
func SampleNotes() []*note.Note {
	return []*note.Note{
		NewTestNote(1, "Buy milk", "2% milk, 1 gallon", "errands"),
		NewTestNote(2, "Milkshake recipe", "ice cream and MILK"),
		NewTestNote(3, "Call plumber", "kitchen sink leaks", "home", "urgent"),
	}
}
