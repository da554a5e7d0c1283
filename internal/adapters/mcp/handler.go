// Package mcp exposes a dispatch router over the Model Context Protocol,
// on stdio or HTTP, and provides a stdio client for talking to such servers.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jbctechsolutions/mcpnotes/internal/application/dispatch"
	domainMCP "github.com/jbctechsolutions/mcpnotes/internal/domain/mcp"
	"github.com/jbctechsolutions/mcpnotes/internal/infrastructure/logging"
)

// Handler turns one JSON-RPC message into at most one response. It is
// shared by the stdio and HTTP transports and is safe for concurrent use.
type Handler struct {
	router *dispatch.Router
	logger *logging.Logger
}

// NewHandler creates a handler for router.
func NewHandler(router *dispatch.Router, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{router: router, logger: logger}
}

// Router returns the router requests are dispatched to.
func (h *Handler) Router() *dispatch.Router {
	return h.router
}

// Handle processes a raw message. It returns nil for notifications. The
// shutdown flag is set once a shutdown request has been answered.
func (h *Handler) Handle(ctx context.Context, raw []byte) (resp *domainMCP.Response, shutdown bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		return domainMCP.NewErrorResponse(nil, domainMCP.ErrorCodeInvalidRequest, "batch requests are not supported", nil), false
	}

	var req domainMCP.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return domainMCP.NewErrorResponse(nil, domainMCP.ErrorCodeParseError, "parse error", err.Error()), false
	}
	if req.JSONRPC != domainMCP.JSONRPCVersion || req.Method == "" {
		if req.IsNotification() {
			return nil, false
		}
		return domainMCP.NewErrorResponse(req.ID, domainMCP.ErrorCodeInvalidRequest, "invalid request", nil), false
	}

	result, rpcErr := h.route(ctx, &req)
	if req.IsNotification() {
		return nil, false
	}
	if rpcErr != nil {
		return &domainMCP.Response{JSONRPC: domainMCP.JSONRPCVersion, ID: req.ID, Error: rpcErr}, false
	}

	resp, err := domainMCP.NewResult(req.ID, result)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to encode result", "method", req.Method, "error", err)
		return domainMCP.NewErrorResponse(req.ID, domainMCP.ErrorCodeInternalError, "internal error", nil), false
	}
	return resp, req.Method == domainMCP.MethodShutdown
}

func (h *Handler) route(ctx context.Context, req *domainMCP.Request) (any, *domainMCP.RPCError) {
	switch req.Method {
	case domainMCP.MethodInitialize:
		return h.initialize(ctx, req)
	case domainMCP.MethodInitialized:
		return nil, nil
	case domainMCP.MethodPing, domainMCP.MethodShutdown:
		return struct{}{}, nil
	case domainMCP.MethodToolsList:
		return h.listTools(), nil
	case domainMCP.MethodToolsCall:
		return h.callTool(ctx, req)
	case domainMCP.MethodPromptsList:
		return h.listPrompts(), nil
	case domainMCP.MethodPromptsGet:
		return h.getPrompt(ctx, req)
	default:
		return nil, rpcError(domainMCP.ErrorCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
	}
}

func (h *Handler) initialize(ctx context.Context, req *domainMCP.Request) (any, *domainMCP.RPCError) {
	var params domainMCP.InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, invalidParams(err)
		}
	}

	id := h.router.Identity()
	h.logger.InfoContext(ctx, "client initialized",
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version,
		"protocol", params.ProtocolVersion,
	)

	return domainMCP.InitializeResult{
		ProtocolVersion: domainMCP.ProtocolVersion,
		Capabilities:    domainMCP.CapabilitiesFor(h.router.Operations("")),
		ServerInfo:      &domainMCP.ServerInfoResult{Name: id.Name, Version: id.Version},
		Instructions:    id.Instructions,
	}, nil
}

func (h *Handler) listTools() domainMCP.ToolsListResult {
	ops := h.router.Operations(domainMCP.KindTool)
	res := domainMCP.ToolsListResult{Tools: make([]domainMCP.ToolDefinition, 0, len(ops))}
	for i := range ops {
		res.Tools = append(res.Tools, ops[i].ToolDefinition())
	}
	return res
}

func (h *Handler) listPrompts() domainMCP.PromptsListResult {
	ops := h.router.Operations(domainMCP.KindPrompt)
	res := domainMCP.PromptsListResult{Prompts: make([]domainMCP.PromptDefinition, 0, len(ops))}
	for i := range ops {
		res.Prompts = append(res.Prompts, ops[i].PromptDefinition())
	}
	return res
}

// callTool reports operation failures inside the result, flagged isError,
// so clients can show them to the model.
func (h *Handler) callTool(ctx context.Context, req *domainMCP.Request) (any, *domainMCP.RPCError) {
	var params domainMCP.ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	if params.Name == "" {
		return nil, rpcError(domainMCP.ErrorCodeInvalidParams, "invalid params: name is required", nil)
	}

	env := h.router.DispatchKind(ctx, domainMCP.KindTool, params.Name, params.Arguments)
	return env.ToolResult(), nil
}

// getPrompt reports failures as JSON-RPC errors since prompts/get has no
// error flag in its result.
func (h *Handler) getPrompt(ctx context.Context, req *domainMCP.Request) (any, *domainMCP.RPCError) {
	var params domainMCP.PromptGetParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, invalidParams(err)
	}
	if params.Name == "" {
		return nil, rpcError(domainMCP.ErrorCodeInvalidParams, "invalid params: name is required", nil)
	}

	bag := make(map[string]any, len(params.Arguments))
	for k, v := range params.Arguments {
		bag[k] = v
	}

	env := h.router.DispatchKind(ctx, domainMCP.KindPrompt, params.Name, bag)
	if env.IsError() {
		code := domainMCP.ErrorCodeInvalidParams
		if env.Error.Kind == domainMCP.KindInternal {
			code = domainMCP.ErrorCodeInternalError
		}
		return nil, rpcError(code, env.Error.Message, map[string]string{"kind": string(env.Error.Kind)})
	}
	return env.PromptResult(), nil
}

func invalidParams(err error) *domainMCP.RPCError {
	return rpcError(domainMCP.ErrorCodeInvalidParams, "invalid params: "+err.Error(), nil)
}

func rpcError(code int, message string, data any) *domainMCP.RPCError {
	return domainMCP.NewErrorResponse(nil, code, message, data).Error
}
