// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tombee/toolbridge/internal/bridge/catalog"
	"github.com/tombee/toolbridge/pkg/tools"
)

// BridgedTool adapts a catalog entry to the tools.Tool interface, routing
// execution through the backend registry. It is the callable wrapper the
// facade installs on the host for each exposed tool.
type BridgedTool struct {
	entry    catalog.Entry
	registry *Registry
	logger   *slog.Logger
}

// NewBridgedTool creates a wrapper for one catalog entry.
func NewBridgedTool(entry catalog.Entry, registry *Registry, logger *slog.Logger) *BridgedTool {
	if logger == nil {
		logger = slog.Default()
	}
	return &BridgedTool{
		entry:    entry,
		registry: registry,
		logger:   logger,
	}
}

// Name returns the exposed tool name.
func (t *BridgedTool) Name() string {
	return t.entry.Name
}

// Description returns the catalog description.
func (t *BridgedTool) Description() string {
	return t.entry.Description
}

// Schema converts the catalog's JSON Schema to the host's schema format.
func (t *BridgedTool) Schema() *tools.Schema {
	var inputSchema map[string]interface{}
	if len(t.entry.InputSchema) > 0 {
		if err := json.Unmarshal(t.entry.InputSchema, &inputSchema); err != nil {
			// If schema parsing fails, return a minimal schema
			return &tools.Schema{
				Inputs: &tools.ParameterSchema{
					Type:        "object",
					Description: "Tool input parameters",
				},
			}
		}
	}

	return &tools.Schema{
		Inputs: convertJSONSchema(inputSchema),
		Outputs: &tools.ParameterSchema{
			Type:        "object",
			Description: "Tool execution result",
		},
	}
}

// Execute routes the call through the registry. It never propagates an
// error to the host: any failure is converted into a structured error
// result naming the exposed tool, the remote tool, and the cause, so one
// misbehaving backend can never crash or stall the host process.
func (t *BridgedTool) Execute(ctx context.Context, inputs map[string]interface{}) (map[string]interface{}, error) {
	callID := uuid.New().String()

	resp, err := t.registry.CallTool(ctx, t.entry.Name, t.entry.RemoteName, inputs)
	if err != nil {
		t.logger.Warn("bridged tool call failed",
			"call_id", callID,
			"tool", t.entry.Name,
			"backend", t.entry.Backend,
			"error", err,
		)
		resp = TextResult(fmt.Sprintf("tool %s (remote %s) failed: %s",
			t.entry.Name, t.entry.RemoteName, err.Error()), true)
	}

	return responseToOutputs(resp), nil
}

// responseToOutputs converts the canonical response into the host's output
// map, preserving the content/isError shape.
func responseToOutputs(resp *ToolCallResponse) map[string]interface{} {
	contentItems := make([]map[string]interface{}, len(resp.Content))
	for i, content := range resp.Content {
		item := map[string]interface{}{
			"type": content.Type,
		}
		if content.Text != "" {
			item["text"] = content.Text
		}
		if content.Data != "" {
			item["data"] = content.Data
		}
		if content.MimeType != "" {
			item["mimeType"] = content.MimeType
		}
		contentItems[i] = item
	}

	return map[string]interface{}{
		"content": contentItems,
		"isError": resp.IsError,
	}
}

// convertJSONSchema converts a JSON Schema map to the host's ParameterSchema.
// This is a simplified conversion that handles the most common cases.
func convertJSONSchema(schema map[string]interface{}) *tools.ParameterSchema {
	if schema == nil {
		return &tools.ParameterSchema{
			Type: "object",
		}
	}

	paramSchema := &tools.ParameterSchema{}

	if schemaType, ok := schema["type"].(string); ok {
		paramSchema.Type = schemaType
	} else {
		paramSchema.Type = "object"
	}

	if desc, ok := schema["description"].(string); ok {
		paramSchema.Description = desc
	}

	if paramSchema.Type == "object" {
		if props, ok := schema["properties"].(map[string]interface{}); ok {
			paramSchema.Properties = make(map[string]*tools.Property)
			for propName, propSchema := range props {
				propMap, ok := propSchema.(map[string]interface{})
				if !ok {
					continue
				}
				prop := &tools.Property{}

				if propType, ok := propMap["type"].(string); ok {
					prop.Type = propType
				}
				if propDesc, ok := propMap["description"].(string); ok {
					prop.Description = propDesc
				}
				if propEnum, ok := propMap["enum"].([]interface{}); ok {
					prop.Enum = propEnum
				}
				if propDefault, ok := propMap["default"]; ok {
					prop.Default = propDefault
				}
				if propFormat, ok := propMap["format"].(string); ok {
					prop.Format = propFormat
				}

				paramSchema.Properties[propName] = prop
			}
		}

		if required, ok := schema["required"].([]interface{}); ok {
			paramSchema.Required = make([]string, 0, len(required))
			for _, req := range required {
				if reqStr, ok := req.(string); ok {
					paramSchema.Required = append(paramSchema.Required, reqStr)
				}
			}
		}
	}

	return paramSchema
}
