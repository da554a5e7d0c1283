// Package dispatch routes operation calls through validation, the handler
// and response shaping. Every outcome leaves as a single mcp.Envelope.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
)

// UnknownOperation is the operation name observers see for calls that did
// not resolve to a registered operation.
const UnknownOperation = "_unknown"

// Observer is notified around every dispatch. operation is a registered
// name or UnknownOperation, never the raw caller-supplied name. The returned
// function is called once with the final envelope.
type Observer interface {
	ObserveDispatch(ctx context.Context, server string, kind mcp.Kind, operation string, argCount int) (context.Context, func(mcp.Envelope))
}

type nopObserver struct{}

func (nopObserver) ObserveDispatch(ctx context.Context, _ string, _ mcp.Kind, _ string, _ int) (context.Context, func(mcp.Envelope)) {
	return ctx, func(mcp.Envelope) {}
}

// Option configures a Router.
type Option func(*Router)

// WithObserver installs an observer for logging, metrics and tracing.
func WithObserver(o Observer) Option {
	return func(r *Router) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithAllowList restricts which operations Register accepts. Operations
// whose names are not allowed are skipped silently.
func WithAllowList(a *AllowList) Option {
	return func(r *Router) {
		r.allow = a
	}
}

// Router is the operation registry for one server.
type Router struct {
	identity mcp.ServerIdentity
	observer Observer
	allow    *AllowList

	mu    sync.RWMutex
	ops   map[string]mcp.Operation
	order []string
}

// NewRouter creates an empty router for the given server identity.
func NewRouter(identity mcp.ServerIdentity, opts ...Option) *Router {
	r := &Router{
		identity: identity,
		observer: nopObserver{},
		ops:      make(map[string]mcp.Operation),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Identity returns the server identity the router was created with.
func (r *Router) Identity() mcp.ServerIdentity {
	return r.identity
}

// Register adds an operation. It reports whether the operation was
// registered; false with a nil error means the allow list excluded it.
func (r *Router) Register(op mcp.Operation) (bool, error) {
	if err := op.Validate(); err != nil {
		return false, err
	}
	if !r.allow.Allows(op.Name) {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ops[op.Name]; exists {
		return false, fmt.Errorf("%w: %s", mcp.ErrDuplicateOperation, op.Name)
	}
	r.ops[op.Name] = op.Clone()
	r.order = append(r.order, op.Name)
	return true, nil
}

// MustRegister registers every operation and panics on a declaration error.
// Meant for wiring built-in operation sets at startup.
func (r *Router) MustRegister(ops ...mcp.Operation) {
	for _, op := range ops {
		if _, err := r.Register(op); err != nil {
			panic(err)
		}
	}
}

// Lookup returns a copy of the named operation.
func (r *Router) Lookup(name string) (mcp.Operation, error) {
	r.mu.RLock()
	op, ok := r.ops[name]
	r.mu.RUnlock()
	if !ok {
		return mcp.Operation{}, fmt.Errorf("%w: %s", mcp.ErrOperationNotFound, name)
	}
	return op.Clone(), nil
}

// Operations returns the registered operations of the given kind in
// registration order. An empty kind returns all of them.
func (r *Router) Operations(kind mcp.Kind) []mcp.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]mcp.Operation, 0, len(r.order))
	for _, name := range r.order {
		op := r.ops[name]
		if kind == "" || op.Kind == kind {
			out = append(out, op.Clone())
		}
	}
	return out
}

// Dispatch runs the named operation with an untyped argument bag.
// It never panics and never returns an error; every failure is an envelope.
func (r *Router) Dispatch(ctx context.Context, name string, bag map[string]any) mcp.Envelope {
	return r.DispatchKind(ctx, "", name, bag)
}

// DispatchKind is Dispatch restricted to operations of one kind; an
// operation of another kind is reported as not found. An empty kind
// matches any operation.
func (r *Router) DispatchKind(ctx context.Context, kind mcp.Kind, name string, bag map[string]any) (env mcp.Envelope) {
	op, err := r.Lookup(name)
	resolved := err == nil && (kind == "" || op.Kind == kind)

	label, opKind := UnknownOperation, kind
	if resolved {
		label, opKind = op.Name, op.Kind
	}
	ctx, finish := r.observer.ObserveDispatch(ctx, r.identity.Name, opKind, label, len(bag))
	defer func() { finish(env) }()

	if !resolved {
		return mcp.Failure(mcp.KindNotFound, "unknown %s: %s", kindLabel(kind), name)
	}

	args, err := Validate(op, bag)
	if err != nil {
		return Shape(op.Name, nil, err)
	}

	res, err := invoke(ctx, op, args)
	return Shape(op.Name, res, err)
}

// invoke runs the handler, converting a panic into an error.
func invoke(ctx context.Context, op mcp.Operation, args mcp.Args) (res *mcp.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = &panicError{value: p}
		}
	}()
	return op.Handler(ctx, args)
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

func kindLabel(kind mcp.Kind) string {
	if kind == "" {
		return "operation"
	}
	return string(kind)
}
