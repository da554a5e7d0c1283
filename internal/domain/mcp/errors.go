// Package mcp provides domain types for the Model Context Protocol servers:
// JSON-RPC wire types, operation declarations, and response envelopes.
package mcp

import "errors"

// Registry errors.
var (
	// ErrOperationNotFound indicates no operation is registered under the name.
	ErrOperationNotFound = errors.New("operation not found")

	// ErrDuplicateOperation indicates an operation name is already registered.
	ErrDuplicateOperation = errors.New("operation already registered")

	// ErrInvalidOperation indicates an operation declaration is incomplete.
	ErrInvalidOperation = errors.New("invalid operation")
)

// Protocol errors.
var (
	// ErrInvalidRequest indicates the peer sent a malformed JSON-RPC message.
	ErrInvalidRequest = errors.New("invalid json-rpc request")

	// ErrServerClosed indicates the transport has been shut down.
	ErrServerClosed = errors.New("mcp server closed")

	// ErrServerNotRunning indicates the peer process has exited.
	ErrServerNotRunning = errors.New("mcp server not running")

	// ErrInitializeFailed indicates the initialize handshake failed.
	ErrInitializeFailed = errors.New("mcp initialize failed")

	// ErrInvalidResponse indicates a response could not be decoded.
	ErrInvalidResponse = errors.New("invalid mcp response")
)
