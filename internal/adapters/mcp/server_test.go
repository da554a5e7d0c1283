package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainMCP "github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/logging"
)

func TestStdioServer_ProcessesLinesInOrder(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize"}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"create_note","arguments":{"title":"a","body":"b"}}}`,
		`garbage`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"list_notes"}}`,
	}, "\n"))
	out := &bytes.Buffer{}

	srv := NewStdioServer(notesHandler(t), in, out, logging.Discard())
	require.NoError(t, srv.Serve(context.Background()))

	var responses []domainMCP.Response
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		var resp domainMCP.Response
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}

	require.Len(t, responses, 4)
	assert.Equal(t, "1", string(responses[0].ID))
	assert.Equal(t, "2", string(responses[1].ID))
	assert.Equal(t, "null", string(responses[2].ID))
	assert.Equal(t, domainMCP.ErrorCodeParseError, responses[2].Error.Code)
	assert.Equal(t, "3", string(responses[3].ID))

	var list domainMCP.ToolCallResult
	require.NoError(t, json.Unmarshal(responses[3].Result, &list))
	assert.Contains(t, list.TextContent(), "• a")
}

func TestStdioServer_SkipsWhitespaceOnlyLines(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		"   ",
		"\t\r",
		"\r",
		`{"jsonrpc":"2.0","id":2,"method":"ping"}`,
	}, "\r\n") + "\r\n")
	out := &bytes.Buffer{}

	srv := NewStdioServer(notesHandler(t), in, out, logging.Discard())
	require.NoError(t, srv.Serve(context.Background()))

	var responses []domainMCP.Response
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		var resp domainMCP.Response
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}

	require.Len(t, responses, 2)
	for _, resp := range responses {
		assert.Nil(t, resp.Error)
	}
	assert.Equal(t, "1", string(responses[0].ID))
	assert.Equal(t, "2", string(responses[1].ID))
}

func TestStdioServer_StopsAfterShutdown(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"shutdown"}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"ping"}` + "\n")
	out := &bytes.Buffer{}

	srv := NewStdioServer(notesHandler(t), in, out, logging.Discard())
	require.NoError(t, srv.Serve(context.Background()))

	assert.Equal(t, 1, strings.Count(out.String(), "\n"))
}

func TestStdioServer_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	srv := NewStdioServer(notesHandler(t), pr, io.Discard, logging.Discard())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestClient_AgainstStdioServer(t *testing.T) {
	clientToServerR, clientToServerW := io.Pipe()
	serverToClientR, serverToClientW := io.Pipe()

	srv := NewStdioServer(promptsHandler(t), clientToServerR, serverToClientW, logging.Discard())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(context.Background())
		serverToClientW.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := NewClient(clientToServerW, serverToClientR)

	t.Run("Initialize", func(t *testing.T) {
		info, err := client.Initialize(ctx, "test")
		require.NoError(t, err)
		assert.Equal(t, "code-prompts-mcp", info.ServerInfo.Name)
		assert.Same(t, info, client.ServerInfo())
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, client.Ping(ctx))
	})

	t.Run("ListPrompts", func(t *testing.T) {
		defs, err := client.ListPrompts(ctx)
		require.NoError(t, err)
		require.Len(t, defs, 2)
		assert.Equal(t, "explain_code", defs[1].Name)
	})

	t.Run("ListTools", func(t *testing.T) {
		defs, err := client.ListTools(ctx)
		require.NoError(t, err)
		assert.Empty(t, defs)
	})

	t.Run("GetPrompt", func(t *testing.T) {
		res, err := client.GetPrompt(ctx, "review_code", map[string]string{"language": "go", "code": "x := 1"})
		require.NoError(t, err)
		assert.Equal(t, "Code review (go)", res.Description)
	})

	t.Run("GetPromptError", func(t *testing.T) {
		_, err := client.GetPrompt(ctx, "nope", nil)
		var rpcErr *domainMCP.RPCError
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, domainMCP.ErrorCodeInvalidParams, rpcErr.Code)
	})

	t.Run("CallToolError", func(t *testing.T) {
		res, err := client.CallTool(ctx, "review_code", nil)
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	require.NoError(t, client.Close(ctx))
	select {
	case err := <-serveErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after client close")
	}
}
