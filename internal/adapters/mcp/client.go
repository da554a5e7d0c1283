package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	domainMCP "github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
)

// ClientName is reported to servers during initialize.
const ClientName = "mcpnotes"

// Client speaks JSON-RPC to an MCP server over newline-delimited streams.
type Client struct {
	in  io.WriteCloser
	out io.ReadCloser
	cmd *exec.Cmd

	mu        sync.Mutex
	writeMu   sync.Mutex
	requestID atomic.Int64
	pending   map[string]chan *domainMCP.Response

	initResult *domainMCP.InitializeResult

	readErr   error
	closeOnce sync.Once
	done      chan struct{}
}

// NewClient creates a client writing requests to in and reading responses
// from out.
func NewClient(in io.WriteCloser, out io.ReadCloser) *Client {
	c := &Client{
		in:      in,
		out:     out,
		pending: make(map[string]chan *domainMCP.Response),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// StartProcess launches a stdio MCP server and returns a client for it.
func StartProcess(ctx context.Context, command string, args ...string) (*Client, error) {
	cmd := exec.CommandContext(ctx, command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", domainMCP.ErrServerNotRunning, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("%w: stdout pipe: %v", domainMCP.ErrServerNotRunning, err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("%w: %v", domainMCP.ErrServerNotRunning, err)
	}

	c := NewClient(stdin, stdout)
	c.cmd = cmd
	return c, nil
}

// Initialize performs the MCP handshake and sends the initialized
// notification.
func (c *Client) Initialize(ctx context.Context, version string) (*domainMCP.InitializeResult, error) {
	params := domainMCP.InitializeParams{
		ProtocolVersion: domainMCP.ProtocolVersion,
		ClientInfo:      domainMCP.ClientInfo{Name: ClientName, Version: version},
	}

	resp, err := c.call(ctx, domainMCP.MethodInitialize, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainMCP.ErrInitializeFailed, err)
	}

	var result domainMCP.InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("%w: parse initialize result: %v", domainMCP.ErrInitializeFailed, err)
	}
	if err := c.notify(domainMCP.MethodInitialized); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.initResult = &result
	c.mu.Unlock()
	return &result, nil
}

// ListTools fetches the server's tool definitions.
func (c *Client) ListTools(ctx context.Context) ([]domainMCP.ToolDefinition, error) {
	var result domainMCP.ToolsListResult
	if err := c.callInto(ctx, domainMCP.MethodToolsList, nil, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// ListPrompts fetches the server's prompt definitions.
func (c *Client) ListPrompts(ctx context.Context) ([]domainMCP.PromptDefinition, error) {
	var result domainMCP.PromptsListResult
	if err := c.callInto(ctx, domainMCP.MethodPromptsList, nil, &result); err != nil {
		return nil, err
	}
	return result.Prompts, nil
}

// CallTool invokes a tool. Tool failures arrive as a result with IsError
// set, not as an error.
func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (*domainMCP.ToolCallResult, error) {
	var result domainMCP.ToolCallResult
	params := domainMCP.ToolCallParams{Name: name, Arguments: arguments}
	if err := c.callInto(ctx, domainMCP.MethodToolsCall, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPrompt renders a prompt.
func (c *Client) GetPrompt(ctx context.Context, name string, arguments map[string]string) (*domainMCP.PromptGetResult, error) {
	var result domainMCP.PromptGetResult
	params := domainMCP.PromptGetParams{Name: name, Arguments: arguments}
	if err := c.callInto(ctx, domainMCP.MethodPromptsGet, params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping checks the server is responsive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, domainMCP.MethodPing, nil)
	return err
}

// ServerInfo returns the initialize result, or nil before Initialize.
func (c *Client) ServerInfo() *domainMCP.InitializeResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initResult
}

// Close asks the server to shut down, closes the streams and, for a
// spawned process, waits for it to exit.
func (c *Client) Close(ctx context.Context) error {
	var closeErr error

	c.closeOnce.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		_, _ = c.call(shutdownCtx, domainMCP.MethodShutdown, nil)

		c.in.Close()
		c.out.Close()
		close(c.done)

		if c.cmd == nil {
			return
		}

		waitDone := make(chan error, 1)
		go func() {
			waitDone <- c.cmd.Wait()
		}()

		select {
		case closeErr = <-waitDone:
		case <-time.After(10 * time.Second):
			if c.cmd.Process != nil {
				_ = c.cmd.Process.Kill()
			}
			closeErr = <-waitDone
		}
	})

	return closeErr
}

func (c *Client) callInto(ctx context.Context, method string, params, into any) error {
	resp, err := c.call(ctx, method, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Result, into); err != nil {
		return fmt.Errorf("%w: %s: %v", domainMCP.ErrInvalidResponse, method, err)
	}
	return nil
}

// call sends a request and waits for the matching response.
func (c *Client) call(ctx context.Context, method string, params any) (*domainMCP.Response, error) {
	id := c.requestID.Add(1)

	req, err := domainMCP.NewRequest(id, method, params)
	if err != nil {
		return nil, err
	}

	key := string(req.ID)
	respChan := make(chan *domainMCP.Response, 1)

	c.mu.Lock()
	c.pending[key] = respChan
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
	}()

	if err := c.send(req); err != nil {
		return nil, err
	}

	select {
	case resp := <-respChan:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, domainMCP.ErrServerNotRunning
	}
}

func (c *Client) notify(method string) error {
	req, err := domainMCP.NewRequest(0, method, nil)
	if err != nil {
		return err
	}
	return c.send(req)
}

func (c *Client) send(req *domainMCP.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.in.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	return nil
}

// readLoop reads responses and hands them to waiting callers.
func (c *Client) readLoop() {
	scanner := bufio.NewScanner(c.out)
	scanner.Buffer(make([]byte, maxMessageSize), maxMessageSize)

	for scanner.Scan() {
		select {
		case <-c.done:
			return
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var resp domainMCP.Response
		if err := json.Unmarshal(line, &resp); err != nil {
			continue
		}

		c.mu.Lock()
		if ch, ok := c.pending[string(resp.ID)]; ok {
			ch <- &resp
		}
		c.mu.Unlock()
	}

	if err := scanner.Err(); err != nil {
		c.mu.Lock()
		c.readErr = err
		c.mu.Unlock()
	}
}
