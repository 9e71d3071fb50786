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

package bridge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tombee/toolbridge/internal/bridge"
	bridgetest "github.com/tombee/toolbridge/internal/bridge/testing"
)

func newTestRegistry(dialer *bridgetest.MockDialer) *bridge.Registry {
	return bridge.NewRegistry(bridge.RegistryConfig{Dialer: dialer.Dial})
}

func TestRegistry_AddBackend(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	dialer.AddBackend("fs", bridgetest.MockBackend{Tools: sampleTools()})

	r := newTestRegistry(dialer)
	ok := r.AddBackend(context.Background(), testConfig("fs"))
	assert.True(t, ok)

	b, exists := r.Backend("fs")
	require.True(t, exists)
	assert.True(t, b.Connected())
	assert.Equal(t, 1, r.ConnectedCount())
}

func TestRegistry_AddBackend_FailureIsNonFatal(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	dialer.AddBackend("good", bridgetest.MockBackend{Tools: sampleTools()})
	dialer.AddBackend("bad", bridgetest.MockBackend{
		DialError: errors.New("spawn failed"),
	})

	r := newTestRegistry(dialer)
	assert.True(t, r.AddBackend(context.Background(), testConfig("good")))
	assert.False(t, r.AddBackend(context.Background(), testConfig("bad")))

	// The failed backend is tracked for diagnostics but not connected.
	b, exists := r.Backend("bad")
	require.True(t, exists)
	assert.False(t, b.Connected())
	assert.Equal(t, 1, r.ConnectedCount())
}

func TestRegistry_AddBackend_Duplicate(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	r := newTestRegistry(dialer)

	assert.True(t, r.AddBackend(context.Background(), testConfig("fs")))
	assert.True(t, r.AddBackend(context.Background(), testConfig("fs")))
	assert.Equal(t, 1, dialer.DialCount("fs"), "duplicate add must not dial again")
}

func TestRegistry_CallTool_Routing(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	dialer.AddBackend("fs", bridgetest.MockBackend{
		CallHandler: func(ctx context.Context, req bridge.ToolCallRequest) (*bridge.ToolCallResponse, error) {
			return bridge.TextResult("handled "+req.Name, false), nil
		},
	})

	r := newTestRegistry(dialer)
	require.True(t, r.AddBackend(context.Background(), testConfig("fs")))
	r.MapTool("read_file", "fs")
	assert.Equal(t, 1, r.RouteCount())

	resp, err := r.CallTool(context.Background(), "read_file", "fs_read", nil)
	require.NoError(t, err)
	assert.Equal(t, "handled fs_read", resp.Content[0].Text)
}

func TestRegistry_CallTool_NoRoute(t *testing.T) {
	r := newTestRegistry(bridgetest.NewMockDialer())

	_, err := r.CallTool(context.Background(), "missing_tool", "missing_tool", nil)
	require.Error(t, err)

	be := bridge.GetBridgeError(err)
	require.NotNil(t, be)
	assert.Equal(t, bridge.ErrorCodeNoRoute, be.Code)
	assert.Contains(t, be.Error(), "missing_tool")
}

func TestRegistry_HealthCheckAll(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	dialer.AddBackend("bad", bridgetest.MockBackend{
		DialError: errors.New("spawn failed"),
	})

	r := newTestRegistry(dialer)
	require.True(t, r.AddBackend(context.Background(), testConfig("good")))
	require.False(t, r.AddBackend(context.Background(), testConfig("bad")))

	results := r.HealthCheckAll(context.Background())
	assert.Equal(t, map[string]bool{"good": true, "bad": false}, results)
}

func TestRegistry_ShutdownAll(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	r := newTestRegistry(dialer)

	require.True(t, r.AddBackend(context.Background(), testConfig("fs")))
	require.True(t, r.AddBackend(context.Background(), testConfig("web")))
	r.MapTool("read_file", "fs")
	r.MapTool("fetch", "web")

	r.ShutdownAll(context.Background())

	assert.Equal(t, 0, r.ConnectedCount())
	assert.Equal(t, 0, r.RouteCount())
	assert.Empty(t, r.Status())
	assert.True(t, dialer.LatestClient("fs").Closed())
	assert.True(t, dialer.LatestClient("web").Closed())

	// Backends can be added again after shutdown.
	assert.True(t, r.AddBackend(context.Background(), testConfig("fs")))
	assert.Equal(t, 1, r.ConnectedCount())
}

func TestRegistry_Status_Sorted(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	r := newTestRegistry(dialer)

	require.True(t, r.AddBackend(context.Background(), testConfig("zeta")))
	require.True(t, r.AddBackend(context.Background(), testConfig("alpha")))

	statuses := r.Status()
	require.Len(t, statuses, 2)
	assert.Equal(t, "alpha", statuses[0].ID)
	assert.Equal(t, "zeta", statuses[1].ID)
}
