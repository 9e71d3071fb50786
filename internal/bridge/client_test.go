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
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeResult_Text(t *testing.T) {
	c := &Client{backendID: "fs"}

	resp, err := c.normalizeResult("read_file", &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent("file contents")},
	})
	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "text", resp.Content[0].Type)
	assert.Equal(t, "file contents", resp.Content[0].Text)
	assert.False(t, resp.IsError)
}

func TestNormalizeResult_Image(t *testing.T) {
	c := &Client{backendID: "browser"}

	resp, err := c.normalizeResult("screenshot", &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewImageContent("aGVsbG8=", "image/png")},
	})
	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "image", resp.Content[0].Type)
	assert.Equal(t, "aGVsbG8=", resp.Content[0].Data)
	assert.Equal(t, "image/png", resp.Content[0].MimeType)
}

func TestNormalizeResult_ErrorFlagPreserved(t *testing.T) {
	c := &Client{backendID: "fs"}

	resp, err := c.normalizeResult("read_file", &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{mcp.NewTextContent("no such file")},
	})
	require.NoError(t, err, "tool-reported errors are results, not call failures")
	assert.True(t, resp.IsError)
	assert.Equal(t, "no such file", resp.Content[0].Text)
}

func TestNormalizeResult_Nil(t *testing.T) {
	c := &Client{backendID: "fs"}

	_, err := c.normalizeResult("read_file", nil)
	require.Error(t, err)

	be := GetBridgeError(err)
	require.NotNil(t, be)
	assert.Equal(t, ErrorCodeMalformedResult, be.Code)
}

func TestNormalizeResult_StructuredFallback(t *testing.T) {
	c := &Client{backendID: "maps"}

	resp, err := c.normalizeResult("geocode", &mcp.CallToolResult{
		StructuredContent: map[string]interface{}{"lat": 51.5, "lng": -0.12},
	})
	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "text", resp.Content[0].Type)
	assert.Contains(t, resp.Content[0].Text, "51.5")
	assert.Contains(t, resp.Content[0].Text, "-0.12")
}

func TestNormalizeResult_EmptyContent(t *testing.T) {
	c := &Client{backendID: "fs"}

	// No content and no structured payload is still a valid (empty) result.
	resp, err := c.normalizeResult("write_file", &mcp.CallToolResult{})
	require.NoError(t, err)
	assert.Empty(t, resp.Content)
}

func TestNormalizeResult_MixedContent(t *testing.T) {
	c := &Client{backendID: "browser"}

	resp, err := c.normalizeResult("screenshot", &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent("captured page"),
			mcp.NewImageContent("aGVsbG8=", "image/png"),
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Content, 2)
	assert.Equal(t, "text", resp.Content[0].Type)
	assert.Equal(t, "image", resp.Content[1].Type)
}
