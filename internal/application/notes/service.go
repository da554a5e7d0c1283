// Package notes implements the note tools: create, list, search and delete.
// Every call loads the full note set from the store and, after a mutation,
// saves the full set back.
package notes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jbctechsolutions/mcpnotes/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/mcpnotes/internal/domain/errors"
	"github.com/jbctechsolutions/mcpnotes/internal/domain/note"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/logging"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/metrics"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/tracing"
)

// Service manages notes held in a ports.NoteStore.
type Service struct {
	store   ports.NoteStore
	backend string
	ids     *note.IDGenerator
	logger  *logging.Logger
	tracer  *tracing.Tracer
	metrics *metrics.Recorder

	// mu serializes load->mutate->save so concurrent callers on the HTTP
	// transport cannot lose updates.
	mu sync.Mutex
}

// ServiceConfig holds the collaborators of a Service.
type ServiceConfig struct {
	Store   ports.NoteStore
	IDs     *note.IDGenerator // defaults to a generator on the wall clock
	Logger  *logging.Logger
	Tracer  *tracing.Tracer
	Metrics *metrics.Recorder
}

// NewService creates a note service.
func NewService(cfg ServiceConfig) *Service {
	ids := cfg.IDs
	if ids == nil {
		ids = note.NewIDGenerator(time.Now)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = tracing.Default()
	}

	backend := "custom"
	if d, ok := cfg.Store.(ports.StoreDescriber); ok {
		backend = d.Backend()
	}

	return &Service{
		store:   cfg.Store,
		backend: backend,
		ids:     ids,
		logger:  logger,
		tracer:  tracer,
		metrics: cfg.Metrics,
	}
}

// Create stores a new note and returns it.
func (s *Service) Create(ctx context.Context, title, body string, tags []string) (*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	id, createdAt := s.ids.Next()
	n, err := note.New(id, title, body, tags, createdAt)
	if err != nil {
		return nil, err
	}

	notes = append(notes, n)
	if err := s.save(ctx, notes); err != nil {
		return nil, err
	}

	tracing.AddEvent(ctx, "note.created", attribute.String("note.id", n.ID))
	s.logger.InfoContext(ctx, "note created", "note_id", n.ID, "notes", len(notes))
	return n, nil
}

// List returns all notes in storage order.
func (s *Service) List(ctx context.Context) ([]*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// Search returns the notes whose title or body contains term, ignoring case,
// in storage order.
func (s *Service) Search(ctx context.Context, term string) ([]*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var hits []*note.Note
	for _, n := range notes {
		if n.Matches(term) {
			hits = append(hits, n)
		}
	}
	return hits, nil
}

// Delete removes the note with the given id and returns it. An unknown id
// yields a not-found error and leaves the store untouched.
func (s *Service) Delete(ctx context.Context, id string) (*note.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, n := range notes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, note.NotFound(id)
	}

	removed := notes[idx]
	remaining := make([]*note.Note, 0, len(notes)-1)
	remaining = append(remaining, notes[:idx]...)
	remaining = append(remaining, notes[idx+1:]...)

	if err := s.save(ctx, remaining); err != nil {
		return nil, err
	}

	tracing.AddEvent(ctx, "note.deleted", attribute.String("note.id", id))
	s.logger.InfoContext(ctx, "note deleted", "note_id", id, "notes", len(remaining))
	return removed, nil
}

func (s *Service) load(ctx context.Context) ([]*note.Note, error) {
	ctx, span := s.tracer.StartStoreSpan(ctx, s.backend, "load")

	notes, err := s.store.Load(ctx)
	if err != nil {
		span.EndWithError(err)
		return nil, domainErrors.NewError(domainErrors.CodeStorage, "load notes", err)
	}
	span.SetNoteCount(len(notes))
	span.End()

	for _, n := range notes {
		s.ids.Observe(n.ID)
	}
	s.metrics.SetNoteCount(len(notes))
	return notes, nil
}

func (s *Service) save(ctx context.Context, notes []*note.Note) error {
	ctx, span := s.tracer.StartStoreSpan(ctx, s.backend, "save")

	if err := s.store.Save(ctx, notes); err != nil {
		span.EndWithError(err)
		s.logger.ErrorContext(ctx, "saving notes failed", "backend", s.backend, "error", err.Error())
		return domainErrors.NewError(domainErrors.CodeStorage, "save notes", fmt.Errorf("%w: %w", domainErrors.ErrStoreUnwritable, err))
	}
	span.SetNoteCount(len(notes))
	span.End()

	s.metrics.SetNoteCount(len(notes))
	return nil
}
