package notes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
	"github.com/jbctechsolutions/mcpnotes/internal/domain/note"
)

// Operation names.
const (
	OpCreate = "create_note"
	OpList   = "list_notes"
	OpSearch = "search_notes"
	OpDelete = "delete_note"
)

// Identity is the server identity of the notes server.
func Identity(version string) mcp.ServerIdentity {
	return mcp.ServerIdentity{
		Name:         "notes-mcp",
		Version:      version,
		Instructions: "A server for managing a list of notes.",
	}
}

type createArgs struct {
	Title string
	Body  string
	Tags  []string
}

type searchArgs struct {
	Term string
}

type deleteArgs struct {
	ID string
}

// Operations returns the note tools bound to s, in listing order.
func (s *Service) Operations() []mcp.Operation {
	return []mcp.Operation{
		{
			Name:        OpCreate,
			Kind:        mcp.KindTool,
			Description: "Create a new note with a title, body and optional tags.",
			Fields: []mcp.Field{
				{Name: "title", Description: "Note title", Type: mcp.FieldString, Required: true, MinLength: note.MinTitleLength, MaxLength: note.MaxTitleLength},
				{Name: "body", Description: "Note body", Type: mcp.FieldString, Required: true, MinLength: 1},
				{Name: "tags", Description: "Optional tags for the note", Type: mcp.FieldStringArray},
			},
			Handler: s.handleCreate,
		},
		{
			Name:        OpList,
			Kind:        mcp.KindTool,
			Description: "List every saved note.",
			Handler:     s.handleList,
		},
		{
			Name:        OpSearch,
			Kind:        mcp.KindTool,
			Description: "Search notes whose title or body contains a term (case-insensitive).",
			Fields: []mcp.Field{
				{Name: "term", Description: "Term to look for in titles or bodies", Type: mcp.FieldString, Required: true, MinLength: 1},
			},
			Handler: s.handleSearch,
		},
		{
			Name:        OpDelete,
			Kind:        mcp.KindTool,
			Description: "Delete a note by its ID.",
			Fields: []mcp.Field{
				{Name: "id", Description: "ID of the note to delete", Type: mcp.FieldString, Required: true},
			},
			Handler: s.handleDelete,
		},
	}
}

func (s *Service) handleCreate(ctx context.Context, args mcp.Args) (*mcp.Result, error) {
	in := createArgs{
		Title: args.String("title"),
		Body:  args.String("body"),
		Tags:  args.Strings("tags"),
	}

	n, err := s.Create(ctx, in.Title, in.Body, in.Tags)
	if err != nil {
		return nil, err
	}
	return mcp.TextResult(RenderCreated(n)), nil
}

func (s *Service) handleList(ctx context.Context, _ mcp.Args) (*mcp.Result, error) {
	notes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return mcp.TextResult(RenderList(notes)), nil
}

func (s *Service) handleSearch(ctx context.Context, args mcp.Args) (*mcp.Result, error) {
	in := searchArgs{Term: args.String("term")}

	hits, err := s.Search(ctx, in.Term)
	if err != nil {
		return nil, err
	}
	return mcp.TextResult(RenderSearch(in.Term, hits)), nil
}

func (s *Service) handleDelete(ctx context.Context, args mcp.Args) (*mcp.Result, error) {
	in := deleteArgs{ID: args.String("id")}

	n, err := s.Delete(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	return mcp.TextResult(RenderDeleted(n)), nil
}

// RenderCreated renders the confirmation for a created note.
func RenderCreated(n *note.Note) string {
	return fmt.Sprintf("✅ Note created\nID: %s\nTitle: %s", n.ID, n.Title)
}

// RenderList renders all notes, or the empty-store message.
func RenderList(notes []*note.Note) string {
	if len(notes) == 0 {
		return "📝 No notes saved."
	}

	var b strings.Builder
	b.WriteString("📝 Notes:\n")
	for _, n := range notes {
		b.WriteString("\n• ")
		b.WriteString(n.Title)
		if label := n.TagLabel(); label != "" {
			b.WriteString(" ")
			b.WriteString(label)
		}
		fmt.Fprintf(&b, "\n  ID: %s\n  Created: %s", n.ID, n.CreatedAt.UTC().Format(time.RFC3339))
	}
	return b.String()
}

// RenderSearch renders search hits for term, or the no-results message.
func RenderSearch(term string, hits []*note.Note) string {
	if len(hits) == 0 {
		return fmt.Sprintf("🔍 No results for '%s'.", term)
	}

	entries := make([]string, 0, len(hits))
	for _, n := range hits {
		entries = append(entries, fmt.Sprintf("• %s\n  ID: %s", n.Title, n.ID))
	}
	return fmt.Sprintf("🔍 Results for '%s':\n\n", term) + strings.Join(entries, "\n\n")
}

// RenderDeleted renders the confirmation for a deleted note.
func RenderDeleted(n *note.Note) string {
	return fmt.Sprintf("🗑️ Note deleted (ID: %s)", n.ID)
}
