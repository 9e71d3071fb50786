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
	"github.com/tombee/toolbridge/internal/bridge/catalog"
	bridgetest "github.com/tombee/toolbridge/internal/bridge/testing"
	"github.com/tombee/toolbridge/pkg/tools"
)

func newTestBridge(dialer *bridgetest.MockDialer) (*bridge.Bridge, *tools.Registry) {
	host := tools.NewRegistry()
	registry := bridge.NewRegistry(bridge.RegistryConfig{Dialer: dialer.Dial})
	return bridge.New(host, registry, nil), host
}

func TestBridge_Register_PartialFailure(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	dialer.AddBackend("github", bridgetest.MockBackend{
		DialError: errors.New("spawn failed: npx not found"),
	})

	b, host := newTestBridge(dialer)
	err := b.Register(context.Background(), bridge.Options{
		Configs: []bridge.BackendConfig{
			testConfig("maps"),
			testConfig("github"),
		},
	})
	require.NoError(t, err, "one failed backend must not fail registration")

	// The maps backend contributes exactly its three catalog tools; nothing
	// from the failed github backend is exposed.
	assert.Equal(t, 3, host.Count())
	assert.True(t, host.Has("maps_geocode"))
	assert.True(t, host.Has("maps_directions"))
	assert.False(t, host.Has("github_create_issue"))

	status := b.Status()
	assert.Equal(t, 1, status.HealthyBackends)
	assert.Equal(t, 3, status.RegisteredTools)
	assert.Len(t, status.Backends, 2)
}

func TestBridge_Register_NoBackends(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	dialer.AddBackend("maps", bridgetest.MockBackend{
		DialError: errors.New("spawn failed"),
	})

	b, host := newTestBridge(dialer)
	err := b.Register(context.Background(), bridge.Options{
		Configs: []bridge.BackendConfig{testConfig("maps")},
	})
	require.NoError(t, err, "zero connected backends degrades, not fails")
	assert.Equal(t, 0, host.Count())
	assert.Equal(t, 0, b.Status().HealthyBackends)
}

func TestBridge_Register_AllowList(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	b, host := newTestBridge(dialer)

	err := b.Register(context.Background(), bridge.Options{
		Configs: []bridge.BackendConfig{
			testConfig("maps"),
			testConfig("slack"),
		},
		Backends: []string{"slack"},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, dialer.DialCount("maps"), "backends outside the allow-list are never dialed")
	assert.Equal(t, 1, dialer.DialCount("slack"))
	assert.Equal(t, 2, host.Count())
	assert.True(t, host.Has("slack_post_message"))
}

func TestBridge_Register_CategoryAndPriorityFilters(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	b, host := newTestBridge(dialer)

	err := b.Register(context.Background(), bridge.Options{
		Configs: []bridge.BackendConfig{
			testConfig("filesystem"),
			testConfig("browser"),
		},
		Categories:  []catalog.Category{catalog.CategoryFilesystem},
		MaxPriority: 1,
	})
	require.NoError(t, err)

	// Only priority-1 filesystem tools survive both filters.
	assert.Equal(t, 2, host.Count())
	assert.True(t, host.Has("fs_read_file"))
	assert.True(t, host.Has("fs_write_file"))
	assert.False(t, host.Has("fs_list_directory"))
	assert.False(t, host.Has("browser_navigate"))
}

func TestBridge_Register_TagQuery(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	b, host := newTestBridge(dialer)

	err := b.Register(context.Background(), bridge.Options{
		Configs: []bridge.BackendConfig{
			testConfig("browser"),
			testConfig("sqlite"),
		},
		TagQuery: []string{"screenshot"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, host.Count())
	assert.True(t, host.Has("browser_screenshot"))
}

func TestBridge_CallThroughHost(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	dialer.AddBackend("maps", bridgetest.MockBackend{
		CallHandler: func(ctx context.Context, req bridge.ToolCallRequest) (*bridge.ToolCallResponse, error) {
			// The host sees the exposed name, the backend its own name.
			assert.Equal(t, "maps_geocode", req.Name)
			return bridge.TextResult(`{"lat": 51.5, "lng": -0.12}`, false), nil
		},
	})

	b, host := newTestBridge(dialer)
	require.NoError(t, b.Register(context.Background(), bridge.Options{
		Configs: []bridge.BackendConfig{testConfig("maps")},
	}))

	outputs, err := host.Execute(context.Background(), "maps_geocode", map[string]interface{}{
		"address": "London",
	})
	require.NoError(t, err)

	assert.Equal(t, false, outputs["isError"])
	content, ok := outputs["content"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, content, 1)
	assert.Contains(t, content[0]["text"], "51.5")

	b.Shutdown(context.Background())
}

func TestBridge_CallFailureSurfacesAsToolError(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	dialer.AddBackend("maps", bridgetest.MockBackend{
		CallHandler: func(ctx context.Context, req bridge.ToolCallRequest) (*bridge.ToolCallResponse, error) {
			return nil, errors.New("connection reset by peer")
		},
	})

	b, host := newTestBridge(dialer)
	require.NoError(t, b.Register(context.Background(), bridge.Options{
		Configs: []bridge.BackendConfig{testConfig("maps")},
	}))
	defer b.Shutdown(context.Background())

	// Every dial hands out a client whose calls fail at transport level, so
	// the one reconnect retry also fails. The wrapper converts that into a
	// structured error result instead of propagating it to the host.
	outputs, err := host.Execute(context.Background(), "maps_geocode", map[string]interface{}{
		"address": "London",
	})
	require.NoError(t, err)
	assert.Equal(t, true, outputs["isError"])

	// Original dial plus exactly one reconnect.
	assert.Equal(t, 2, dialer.DialCount("maps"))
}

func TestBridge_ShutdownAndReRegister(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	b, host := newTestBridge(dialer)

	opts := bridge.Options{
		Configs: []bridge.BackendConfig{testConfig("maps")},
	}
	require.NoError(t, b.Register(context.Background(), opts))
	require.Equal(t, 3, host.Count())

	b.Shutdown(context.Background())
	assert.Equal(t, 0, host.Count(), "shutdown uninstalls every bridged tool")
	assert.Equal(t, 0, b.Status().RegisteredTools)
	assert.True(t, dialer.LatestClient("maps").Closed())

	// A fresh Register after Shutdown starts clean.
	require.NoError(t, b.Register(context.Background(), opts))
	assert.Equal(t, 3, host.Count())
	assert.Equal(t, 1, b.Status().HealthyBackends)
}

func TestBridge_HealthCheckAll(t *testing.T) {
	dialer := bridgetest.NewMockDialer()
	dialer.AddBackend("github", bridgetest.MockBackend{
		DialError: errors.New("spawn failed"),
	})

	b, _ := newTestBridge(dialer)
	require.NoError(t, b.Register(context.Background(), bridge.Options{
		Configs: []bridge.BackendConfig{
			testConfig("maps"),
			testConfig("github"),
		},
	}))
	defer b.Shutdown(context.Background())

	results := b.HealthCheckAll(context.Background())
	assert.Equal(t, map[string]bool{"maps": true, "github": false}, results)
}
