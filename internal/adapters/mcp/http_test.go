package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainMCP "github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/logging"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/metrics"
)

func post(t *testing.T, h http.Handler, remote, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, PathMCP, bytes.NewReader([]byte(body)))
	if remote != "" {
		req.RemoteAddr = remote
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHTTPServer_MCP(t *testing.T) {
	srv := NewHTTPServer(notesHandler(t), HTTPConfig{Logger: logging.Discard()})
	h := srv.Handler()

	rec := post(t, h, "", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp domainMCP.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	var list domainMCP.ToolsListResult
	require.NoError(t, json.Unmarshal(resp.Result, &list))
	assert.Len(t, list.Tools, 4)

	rec = post(t, h, "", `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = post(t, h, "", `{oops`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domainMCP.ErrorCodeParseError, resp.Error.Code)
}

func TestHTTPServer_MethodNotAllowed(t *testing.T) {
	srv := NewHTTPServer(notesHandler(t), HTTPConfig{Logger: logging.Discard()})

	req := httptest.NewRequest(http.MethodGet, PathMCP, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestHTTPServer_RequestTooLarge(t *testing.T) {
	srv := NewHTTPServer(notesHandler(t), HTTPConfig{Logger: logging.Discard()})
	rec := post(t, srv.Handler(), "", strings.Repeat("x", maxMessageSize+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHTTPServer_Health(t *testing.T) {
	srv := NewHTTPServer(notesHandler(t), HTTPConfig{Logger: logging.Discard()})

	req := httptest.NewRequest(http.MethodGet, PathHealth, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","server":"notes-mcp","version":"test"}`, rec.Body.String())
}

func TestHTTPServer_RateLimitReturns429(t *testing.T) {
	rec := metrics.New(false)
	srv := NewHTTPServer(notesHandler(t), HTTPConfig{
		Logger:    logging.Discard(),
		Metrics:   rec,
		RateLimit: RateLimitConfig{RPS: 1, Burst: 1},
	})
	fixed := time.Unix(1000, 0)
	srv.now = func() time.Time { return fixed }
	h := srv.Handler()

	body := `{"jsonrpc":"2.0","id":1,"method":"ping"}`
	first := post(t, h, "127.0.0.1:10001", body)
	assert.Equal(t, http.StatusOK, first.Code)

	second := post(t, h, "127.0.0.1:10002", body)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	other := post(t, h, "10.0.0.9:10001", body)
	assert.Equal(t, http.StatusOK, other.Code, "limits are per client host")

	metricsReq := httptest.NewRequest(http.MethodGet, PathMetrics, nil)
	metricsRec := httptest.NewRecorder()
	h.ServeHTTP(metricsRec, metricsReq)
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), "mcpnotes_http_rate_limited_total 1")
}

func TestHTTPServer_NoMetricsRouteWithoutRecorder(t *testing.T) {
	srv := NewHTTPServer(notesHandler(t), HTTPConfig{Logger: logging.Discard()})

	req := httptest.NewRequest(http.MethodGet, PathMetrics, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewHTTPServer(notesHandler(t), HTTPConfig{Logger: logging.Discard()})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx, ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+PathMCP, "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","id":7,"method":"ping"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewHTTPServer_DefaultAddr(t *testing.T) {
	srv := NewHTTPServer(notesHandler(t), HTTPConfig{Logger: logging.Discard()})
	assert.Equal(t, DefaultHTTPAddr, srv.Addr())
}

func TestNewHTTPServer_ErrorLogWritesThroughLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New(logging.Config{Level: logging.LevelDebug, Output: buf})
	srv := NewHTTPServer(notesHandler(t), HTTPConfig{Logger: logger})

	require.NotNil(t, srv.httpServer.ErrorLog)
	srv.httpServer.ErrorLog.Print("http: TLS handshake error from 10.0.0.1:5000: EOF")

	assert.Contains(t, buf.String(), "TLS handshake error")
	assert.Contains(t, buf.String(), "level=WARN")
}
