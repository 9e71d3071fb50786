package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// Client wraps an MCP server subprocess connection over stdio.
// It implements BackendClient.
type Client struct {
	// backendID is the unique identifier for this backend
	backendID string

	// client is the underlying MCP protocol client
	client *client.Client

	// process is the underlying OS process (observable, not owned)
	process *os.Process
}

// DialStdio launches the backend subprocess and performs the MCP handshake.
// The caller is responsible for bounding ctx with a connect timeout.
func DialStdio(ctx context.Context, cfg BackendConfig) (BackendClient, error) {
	mcpClient, err := client.NewStdioMCPClient(cfg.Command, cfg.ExpandedEnv(), cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP client: %w", err)
	}

	if err := mcpClient.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start MCP client: %w", err)
	}

	c := &Client{
		backendID: cfg.ID,
		client:    mcpClient,
		process:   extractProcess(mcpClient),
	}

	if err := c.initialize(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize backend: %w", err)
	}

	return c, nil
}

// initialize sends the initialize request to the backend.
func (c *Client) initialize(ctx context.Context) error {
	initReq := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{
				// Minimal capabilities for tool usage
			},
			ClientInfo: mcp.Implementation{
				Name:    "toolbridge",
				Version: "0.1.0",
			},
		},
	}

	if _, err := c.client.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("initialize request failed: %w", err)
	}

	return nil
}

// extractProcess attempts to extract the underlying OS process from the MCP
// client. Uses reflection to access the stdio transport's process field.
// Returns nil if extraction fails (non-fatal - the PID just won't be
// reported in status).
func extractProcess(mcpClient *client.Client) *os.Process {
	if mcpClient == nil {
		return nil
	}

	transport := mcpClient.GetTransport()
	if transport == nil {
		return nil
	}

	// The transport should be *transport.Stdio which holds a Cmd *exec.Cmd
	transportVal := reflect.ValueOf(transport)
	if transportVal.Kind() == reflect.Ptr {
		transportVal = transportVal.Elem()
	}

	cmdField := transportVal.FieldByName("Cmd")
	if !cmdField.IsValid() || cmdField.IsNil() {
		return nil
	}

	if cmdField.Kind() == reflect.Ptr {
		cmdVal := cmdField.Elem()
		processField := cmdVal.FieldByName("Process")
		if !processField.IsValid() || processField.IsNil() {
			return nil
		}

		if proc, ok := processField.Interface().(*os.Process); ok {
			return proc
		}
	}

	return nil
}

// ListTools retrieves the list of available tools from the backend.
func (c *Client) ListTools(ctx context.Context) ([]ToolDefinition, error) {
	result, err := c.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	tools := make([]ToolDefinition, len(result.Tools))
	for i, tool := range result.Tools {
		// Use RawInputSchema if available, otherwise marshal InputSchema
		var schemaBytes []byte
		if len(tool.RawInputSchema) > 0 {
			schemaBytes = tool.RawInputSchema
		} else {
			toolBytes, err := tool.MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("failed to marshal tool %s: %w", tool.Name, err)
			}
			var toolMap map[string]interface{}
			if err := json.Unmarshal(toolBytes, &toolMap); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool %s: %w", tool.Name, err)
			}
			if inputSchema, ok := toolMap["inputSchema"]; ok {
				schemaBytes, err = json.Marshal(inputSchema)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal input schema for %s: %w", tool.Name, err)
				}
			}
		}

		tools[i] = ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schemaBytes,
		}
	}

	return tools, nil
}

// CallTool executes a backend tool and normalizes the result into the
// canonical content/isError shape.
func (c *Client) CallTool(ctx context.Context, req ToolCallRequest) (*ToolCallResponse, error) {
	mcpReq := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      req.Name,
			Arguments: req.Arguments,
		},
	}

	result, err := c.client.CallTool(ctx, mcpReq)
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}

	return c.normalizeResult(req.Name, result)
}

// normalizeResult reduces the transport's result envelope to the canonical
// ToolCallResponse shape. The envelope is either a list of content items or
// a structured result nested under a secondary field; both reduce to content
// items. Deferred task-style results are rejected.
func (c *Client) normalizeResult(toolName string, result *mcp.CallToolResult) (*ToolCallResponse, error) {
	if result == nil {
		return nil, ErrMalformedResult(c.backendID, toolName, "backend returned an empty result")
	}

	response := &ToolCallResponse{
		IsError: result.IsError,
		Content: make([]ContentItem, 0, len(result.Content)),
	}

	for _, content := range result.Content {
		item := ContentItem{}

		if textContent, ok := mcp.AsTextContent(content); ok {
			item.Type = textContent.Type
			item.Text = textContent.Text
		} else if imageContent, ok := mcp.AsImageContent(content); ok {
			item.Type = imageContent.Type
			item.Data = imageContent.Data
			item.MimeType = imageContent.MIMEType
		} else {
			// Fallback: marshal to JSON to extract fields
			contentBytes, err := json.Marshal(content)
			if err != nil {
				return nil, ErrMalformedResult(c.backendID, toolName, err.Error())
			}
			var contentMap map[string]interface{}
			if err := json.Unmarshal(contentBytes, &contentMap); err != nil {
				return nil, ErrMalformedResult(c.backendID, toolName, err.Error())
			}

			contentType, _ := contentMap["type"].(string)
			if contentType == "task" || contentMap["taskId"] != nil {
				return nil, ErrDeferredResult(c.backendID, toolName)
			}
			if contentType == "" {
				return nil, ErrMalformedResult(c.backendID, toolName,
					"content item has no type field")
			}

			item.Type = contentType
			if text, ok := contentMap["text"].(string); ok {
				item.Text = text
			}
			if data, ok := contentMap["data"].(string); ok {
				item.Data = data
			}
			if mimeType, ok := contentMap["mimeType"].(string); ok {
				item.MimeType = mimeType
			}
		}

		response.Content = append(response.Content, item)
	}

	// Alternate envelope: a structured result with no content items is
	// flattened into a single text item.
	if len(response.Content) == 0 && result.StructuredContent != nil {
		structured, err := json.Marshal(result.StructuredContent)
		if err != nil {
			return nil, ErrMalformedResult(c.backendID, toolName, err.Error())
		}
		response.Content = []ContentItem{{Type: "text", Text: string(structured)}}
	}

	return response, nil
}

// Ping checks if the backend is still responsive.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// Close closes the connection to the backend and stops the subprocess.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}

	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close MCP client: %w", err)
	}

	return nil
}

// PID returns the backend subprocess identifier, 0 when unknown.
func (c *Client) PID() int {
	if c.process == nil {
		return 0
	}
	return c.process.Pid
}

// OnConnectionLost registers a handler for unexpected transport closure.
func (c *Client) OnConnectionLost(handler func(error)) {
	c.client.OnConnectionLost(handler)
}
