// Package bridge aggregates tool-providing backend subprocesses behind a
// single uniform invocation surface.
//
// Each backend is an out-of-process MCP server reached over stdio. The bridge
// owns backend lifecycles, discovers each backend's tools, routes calls by
// exposed tool name, and degrades gracefully when individual backends are
// unavailable.
package bridge

import (
	"encoding/json"
)

// ToolDefinition represents a tool as reported by a backend.
type ToolDefinition struct {
	// Name is the tool's identifier as known to the backend
	Name string `json:"name"`

	// Description explains what the tool does
	Description string `json:"description"`

	// InputSchema defines the expected input parameters using JSON Schema
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ToolCallRequest represents a request to execute a backend tool.
type ToolCallRequest struct {
	// Name is the tool to execute (the backend's own name for it)
	Name string `json:"name"`

	// Arguments contains the input parameters for the tool
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolCallResponse is the canonical result shape for a backend tool call.
// Every transport envelope is reduced to this before it leaves the bridge.
type ToolCallResponse struct {
	// Content contains the tool's output
	Content []ContentItem `json:"content"`

	// IsError indicates if the tool execution failed
	IsError bool `json:"isError,omitempty"`
}

// ContentItem represents a piece of content in a tool call response.
type ContentItem struct {
	// Type is the content type (text, image, resource)
	Type string `json:"type"`

	// Text is the text content (for type="text")
	Text string `json:"text,omitempty"`

	// Data is the base64-encoded data (for type="image")
	Data string `json:"data,omitempty"`

	// MimeType is the MIME type for binary content
	MimeType string `json:"mimeType,omitempty"`
}

// TextResult builds a single-item text response. Used by the facade when
// converting failures into structured error results.
func TextResult(text string, isError bool) *ToolCallResponse {
	return &ToolCallResponse{
		Content: []ContentItem{{Type: "text", Text: text}},
		IsError: isError,
	}
}

// BackendStatus is a point-in-time snapshot of one backend's state.
type BackendStatus struct {
	// ID is the backend's unique identifier
	ID string `json:"id"`

	// Name is the backend's display name
	Name string `json:"name"`

	// Connected reports whether the backend currently holds a live connection
	Connected bool `json:"connected"`

	// PID is the backend subprocess identifier, 0 when unknown
	PID int `json:"pid,omitempty"`

	// LastError is the most recent error message, retained across disconnects
	LastError string `json:"lastError,omitempty"`

	// ToolCount is the number of tools from the last discovery
	ToolCount int `json:"toolCount"`
}
