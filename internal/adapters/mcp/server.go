package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	domainMCP "github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/logging"
)

// maxMessageSize bounds a single newline-delimited message.
const maxMessageSize = 1024 * 1024

// StdioServer serves a Handler over newline-delimited JSON on a reader and
// writer pair. Requests are handled one at a time in arrival order.
type StdioServer struct {
	handler *Handler
	in      io.Reader
	out     io.Writer
	logger  *logging.Logger

	writeMu sync.Mutex
}

// NewStdioServer creates a server reading requests from in and writing
// responses to out.
func NewStdioServer(handler *Handler, in io.Reader, out io.Writer, logger *logging.Logger) *StdioServer {
	if logger == nil {
		logger = logging.Default()
	}
	return &StdioServer{handler: handler, in: in, out: out, logger: logger}
}

// Serve runs until the input ends, a shutdown request is answered or ctx
// is cancelled. End of input is a clean stop and returns nil.
func (s *StdioServer) Serve(ctx context.Context) (err error) {
	id := s.handler.Router().Identity()
	ctx = logging.WithTransport(logging.WithServer(ctx, id.Name), "stdio")
	logging.LogServerStart(ctx, s.logger, id.Name, id.Version, "stdio", "")
	defer func() { logging.LogServerStop(ctx, s.logger, id.Name, err) }()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		scanner := bufio.NewScanner(s.in)
		scanner.Buffer(make([]byte, maxMessageSize), maxMessageSize)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("read request: %w", err)
			}
			return nil
		case line := <-lines:
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			resp, shutdown := s.handler.Handle(ctx, line)
			if resp != nil {
				if err := s.write(resp); err != nil {
					return err
				}
			}
			if shutdown {
				return nil
			}
		}
	}
}

func (s *StdioServer) write(resp *domainMCP.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.out.Write(append(data, '\n')); err != nil {
		if errors.Is(err, io.ErrClosedPipe) {
			return domainMCP.ErrServerClosed
		}
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
