package mcp

import (
	"fmt"
	"strings"
)

// ServerIdentity describes the server reported to clients during initialize.
type ServerIdentity struct {
	Name         string // Server identifier (e.g., "notes-mcp")
	Version      string
	Instructions string // Human-readable description of what the server offers
}

// Validate checks if the ServerIdentity is valid.
func (s *ServerIdentity) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: server name is required", ErrInvalidOperation)
	}
	return nil
}

// ServerCapabilities describes what the MCP server supports.
type ServerCapabilities struct {
	Tools   *ToolsCapability   `json:"tools,omitempty"`
	Prompts *PromptsCapability `json:"prompts,omitempty"`
}

// ToolsCapability describes tool-related capabilities.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"` // Server can notify when tool list changes
}

// PromptsCapability describes prompt-related capabilities.
type PromptsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// CapabilitiesFor advertises tools and/or prompts depending on which kinds
// of operations are registered.
func CapabilitiesFor(ops []Operation) ServerCapabilities {
	var caps ServerCapabilities
	for _, op := range ops {
		switch op.Kind {
		case KindTool:
			caps.Tools = &ToolsCapability{}
		case KindPrompt:
			caps.Prompts = &PromptsCapability{}
		}
	}
	return caps
}
