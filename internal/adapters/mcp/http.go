package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	domainMCP "github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/logging"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/metrics"
)

// DefaultHTTPAddr is used when no listen address is configured.
const DefaultHTTPAddr = "127.0.0.1:8787"

// Route paths served by HTTPServer.
const (
	PathMCP     = "/mcp"
	PathHealth  = "/healthz"
	PathMetrics = "/metrics"
)

// HTTPConfig configures the HTTP transport.
type HTTPConfig struct {
	Addr      string
	RateLimit RateLimitConfig
	Metrics   *metrics.Recorder
	Logger    *logging.Logger
}

// HTTPServer serves a Handler with one JSON-RPC message per POST body.
type HTTPServer struct {
	handler    *Handler
	httpServer *http.Server
	limiter    *clientLimiter
	metrics    *metrics.Recorder
	logger     *logging.Logger
	now        func() time.Time
}

// NewHTTPServer creates an HTTP transport for handler.
func NewHTTPServer(handler *Handler, cfg HTTPConfig) *HTTPServer {
	if cfg.Addr == "" {
		cfg.Addr = DefaultHTTPAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	mux := http.NewServeMux()
	s := &HTTPServer{
		handler: handler,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ErrorLog:          slog.NewLogLogger(cfg.Logger.Underlying().Handler(), slog.LevelWarn),
		},
		limiter: newClientLimiter(cfg.RateLimit),
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		now:     time.Now,
	}

	mux.HandleFunc(PathMCP, s.handleMCP)
	mux.HandleFunc(PathHealth, s.handleHealth)
	if cfg.Metrics != nil {
		mux.Handle(PathMetrics, cfg.Metrics.Handler())
	}
	return s
}

// Handler returns the HTTP handler, for embedding or testing.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *HTTPServer) Addr() string {
	return s.httpServer.Addr
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *HTTPServer) Serve(ctx context.Context, ln net.Listener) (err error) {
	id := s.handler.Router().Identity()
	ctx = logging.WithTransport(logging.WithServer(ctx, id.Name), "http")
	logging.LogServerStart(ctx, s.logger, id.Name, id.Version, "http", ln.Addr().String())
	defer func() { logging.LogServerStop(ctx, s.logger, id.Name, err) }()

	s.httpServer.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		err := s.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
			return
		}
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *HTTPServer) handleMCP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := clientKey(r)
	if !s.limiter.allow(key, s.now()) {
		logging.LogRateLimited(r.Context(), s.logger, key)
		s.metrics.IncRateLimited()
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusTooManyRequests,
			domainMCP.NewErrorResponse(nil, domainMCP.ErrorCodeInvalidRequest, "rate limit exceeded", nil))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize+1))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	if len(body) > maxMessageSize {
		http.Error(w, "request too large", http.StatusRequestEntityTooLarge)
		return
	}

	resp, _ := s.handler.Handle(r.Context(), body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := s.handler.Router().Identity()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"server":  id.Name,
		"version": id.Version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
