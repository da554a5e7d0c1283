package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/jbctechsolutions/mcpnotes/internal/domain/errors"
	"github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
)

func echoOp(name string) mcp.Operation {
	return mcp.Operation{
		Name: name,
		Kind: mcp.KindTool,
		Fields: []mcp.Field{
			{Name: "text", Type: mcp.FieldString, Required: true, MinLength: 1, MaxLength: 10},
		},
		Handler: func(_ context.Context, args mcp.Args) (*mcp.Result, error) {
			return mcp.TextResult("echo: " + args.String("text")), nil
		},
	}
}

func failingOp(name string, err error) mcp.Operation {
	return mcp.Operation{
		Name: name,
		Kind: mcp.KindTool,
		Handler: func(context.Context, mcp.Args) (*mcp.Result, error) {
			return nil, err
		},
	}
}

func newTestRouter(opts ...Option) *Router {
	return NewRouter(mcp.ServerIdentity{Name: "test-mcp", Version: "0.0.1"}, opts...)
}

func TestRouter_Register(t *testing.T) {
	r := newTestRouter()

	ok, err := r.Register(echoOp("echo"))
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = r.Register(echoOp("echo"))
	assert.ErrorIs(t, err, mcp.ErrDuplicateOperation)

	_, err = r.Register(mcp.Operation{Name: "", Kind: mcp.KindTool, Handler: echoOp("x").Handler})
	assert.ErrorIs(t, err, mcp.ErrInvalidOperation)

	_, err = r.Register(mcp.Operation{Name: "nohandler", Kind: mcp.KindTool})
	assert.ErrorIs(t, err, mcp.ErrInvalidOperation)
}

func TestRouter_RegisterCopiesOperation(t *testing.T) {
	r := newTestRouter()
	op := echoOp("echo")
	_, err := r.Register(op)
	require.NoError(t, err)

	op.Fields[0].MaxLength = 1

	got, err := r.Lookup("echo")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Fields[0].MaxLength)
}

func TestRouter_MustRegisterPanicsOnDuplicate(t *testing.T) {
	r := newTestRouter()
	assert.Panics(t, func() { r.MustRegister(echoOp("a"), echoOp("a")) })
}

func TestRouter_OperationsInRegistrationOrder(t *testing.T) {
	r := newTestRouter()
	prompt := echoOp("p")
	prompt.Kind = mcp.KindPrompt
	r.MustRegister(echoOp("zeta"), prompt, echoOp("alpha"))

	names := func(ops []mcp.Operation) []string {
		var out []string
		for _, op := range ops {
			out = append(out, op.Name)
		}
		return out
	}

	assert.Equal(t, []string{"zeta", "alpha"}, names(r.Operations(mcp.KindTool)))
	assert.Equal(t, []string{"p"}, names(r.Operations(mcp.KindPrompt)))
	assert.Equal(t, []string{"zeta", "p", "alpha"}, names(r.Operations("")))
}

func TestRouter_AllowList(t *testing.T) {
	allow, err := NewAllowList([]string{"{list,search}_*"})
	require.NoError(t, err)
	r := newTestRouter(WithAllowList(allow))

	ok, err := r.Register(echoOp("list_notes"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Register(echoOp("delete_note"))
	require.NoError(t, err)
	assert.False(t, ok)

	env := r.Dispatch(context.Background(), "delete_note", map[string]any{"text": "x"})
	require.True(t, env.IsError())
	assert.Equal(t, mcp.KindNotFound, env.Error.Kind)
}

func TestRouter_Dispatch(t *testing.T) {
	r := newTestRouter()
	r.MustRegister(
		echoOp("echo"),
		failingOp("missing", domainErrors.NewError(domainErrors.CodeNotFound, "No note found with ID: n1", domainErrors.ErrNoteNotFound)),
		failingOp("broken", errors.New("disk full")),
		mcp.Operation{
			Name: "panics",
			Kind: mcp.KindTool,
			Handler: func(context.Context, mcp.Args) (*mcp.Result, error) {
				panic("boom")
			},
		},
	)

	tests := []struct {
		name     string
		op       string
		bag      map[string]any
		wantKind mcp.ErrorKind
		wantText string
	}{
		{"success", "echo", map[string]any{"text": "hi", "extra": 1}, "", "echo: hi"},
		{"unknown operation", "nope", nil, mcp.KindNotFound, "❌ unknown operation: nope"},
		{"missing field", "echo", map[string]any{}, mcp.KindInvalidArgument, `❌ invalid argument "text": missing`},
		{"too long", "echo", map[string]any{"text": "01234567890"}, mcp.KindInvalidArgument, `❌ invalid argument "text": must be at most 10 characters`},
		{"domain not found", "missing", nil, mcp.KindNotFound, "❌ No note found with ID: n1"},
		{"internal", "broken", nil, mcp.KindInternal, "❌ broken failed: disk full"},
		{"panic", "panics", nil, mcp.KindInternal, "❌ panics failed: panic: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := r.Dispatch(context.Background(), tt.op, tt.bag)

			if tt.wantKind == "" {
				require.False(t, env.IsError(), "unexpected error: %v", env.Text())
			} else {
				require.True(t, env.IsError())
				assert.Equal(t, tt.wantKind, env.Error.Kind)
			}
			assert.Equal(t, tt.wantText, env.Text())
		})
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	starts []string
	ends   []mcp.Envelope
}

func (o *recordingObserver) ObserveDispatch(ctx context.Context, server string, kind mcp.Kind, operation string, argCount int) (context.Context, func(mcp.Envelope)) {
	o.mu.Lock()
	o.starts = append(o.starts, server+"/"+string(kind)+"/"+operation)
	o.mu.Unlock()
	return ctx, func(env mcp.Envelope) {
		o.mu.Lock()
		o.ends = append(o.ends, env)
		o.mu.Unlock()
	}
}

func TestRouter_ObserverSeesEveryDispatch(t *testing.T) {
	obs := &recordingObserver{}
	r := newTestRouter(WithObserver(obs))
	r.MustRegister(echoOp("echo"))

	r.Dispatch(context.Background(), "echo", map[string]any{"text": "a"})
	r.Dispatch(context.Background(), "nope", nil)

	assert.Equal(t, []string{"test-mcp/tool/echo", "test-mcp//" + UnknownOperation}, obs.starts)
	require.Len(t, obs.ends, 2)
	assert.False(t, obs.ends[0].IsError())
	assert.True(t, obs.ends[1].IsError())
	assert.Equal(t, "unknown operation: nope", obs.ends[1].Error.Message)
}

func TestRouter_ObserverNeverSeesUnregisteredNames(t *testing.T) {
	obs := &recordingObserver{}
	r := newTestRouter(WithObserver(obs))
	prompt := echoOp("p")
	prompt.Kind = mcp.KindPrompt
	r.MustRegister(echoOp("echo"), prompt)

	for i := 0; i < 100; i++ {
		r.Dispatch(context.Background(), fmt.Sprintf("bogus_%d", i), nil)
	}
	r.DispatchKind(context.Background(), mcp.KindTool, "p", map[string]any{"text": "x"})

	require.Len(t, obs.starts, 101)
	for _, start := range obs.starts[:100] {
		assert.Equal(t, "test-mcp//"+UnknownOperation, start)
	}
	assert.Equal(t, "test-mcp/tool/"+UnknownOperation, obs.starts[100])
}

func TestRouter_ConcurrentDispatch(t *testing.T) {
	r := newTestRouter()
	r.MustRegister(echoOp("echo"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env := r.Dispatch(context.Background(), "echo", map[string]any{"text": "x"})
			assert.False(t, env.IsError())
		}()
	}
	wg.Wait()
}

func TestRouter_DispatchKind(t *testing.T) {
	r := newTestRouter()
	prompt := echoOp("p")
	prompt.Kind = mcp.KindPrompt
	r.MustRegister(echoOp("t"), prompt)

	env := r.DispatchKind(context.Background(), mcp.KindTool, "p", map[string]any{"text": "x"})
	require.True(t, env.IsError())
	assert.Equal(t, mcp.KindNotFound, env.Error.Kind)
	assert.Equal(t, "unknown tool: p", env.Error.Message)

	env = r.DispatchKind(context.Background(), mcp.KindPrompt, "p", map[string]any{"text": "x"})
	assert.False(t, env.IsError())

	env = r.DispatchKind(context.Background(), mcp.KindPrompt, "missing", nil)
	assert.Equal(t, "unknown prompt: missing", env.Error.Message)
}
