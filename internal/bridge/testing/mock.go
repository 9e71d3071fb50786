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

package testing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tombee/toolbridge/internal/bridge"
)

// MockClient implements bridge.BackendClient for testing.
type MockClient struct {
	backendID string
	tools     []bridge.ToolDefinition
	callFunc  func(ctx context.Context, req bridge.ToolCallRequest) (*bridge.ToolCallResponse, error)
	pingFunc  func(ctx context.Context) error
	closeFunc func() error
	lostFunc  func(error)
	callDelay time.Duration
	closed    bool
	mu        sync.RWMutex
}

// NewMockClient creates a new mock backend client.
func NewMockClient(backendID string, tools []bridge.ToolDefinition) *MockClient {
	return &MockClient{
		backendID: backendID,
		tools:     tools,
	}
}

// ListTools returns the configured list of tools.
func (c *MockClient) ListTools(ctx context.Context) ([]bridge.ToolDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Make a copy to prevent mutation
	toolsCopy := make([]bridge.ToolDefinition, len(c.tools))
	copy(toolsCopy, c.tools)
	return toolsCopy, nil
}

// CallTool executes a tool call using the configured handler.
func (c *MockClient) CallTool(ctx context.Context, req bridge.ToolCallRequest) (*bridge.ToolCallResponse, error) {
	c.mu.RLock()
	delay := c.callDelay
	callFunc := c.callFunc
	c.mu.RUnlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if callFunc != nil {
		return callFunc(ctx, req)
	}

	// Default behavior: echo back the request
	return bridge.TextResult(fmt.Sprintf("mock response for %s", req.Name), false), nil
}

// Ping returns success unless a custom ping function is configured.
func (c *MockClient) Ping(ctx context.Context) error {
	c.mu.RLock()
	pingFunc := c.pingFunc
	c.mu.RUnlock()

	if pingFunc != nil {
		return pingFunc(ctx)
	}
	return nil
}

// Close marks the client closed.
func (c *MockClient) Close() error {
	c.mu.Lock()
	c.closed = true
	closeFunc := c.closeFunc
	c.mu.Unlock()

	if closeFunc != nil {
		return closeFunc()
	}
	return nil
}

// PID returns a stable fake process id.
func (c *MockClient) PID() int {
	return 12345
}

// OnConnectionLost records the handler so tests can trigger it.
func (c *MockClient) OnConnectionLost(handler func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lostFunc = handler
}

// LoseConnection simulates the transport dropping, invoking the registered
// connection-lost handler with the given error.
func (c *MockClient) LoseConnection(err error) {
	c.mu.RLock()
	handler := c.lostFunc
	c.mu.RUnlock()

	if handler != nil {
		handler(err)
	}
}

// Closed reports whether Close has been called.
func (c *MockClient) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// SetTools replaces the tool list returned by ListTools.
func (c *MockClient) SetTools(tools []bridge.ToolDefinition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tools = tools
}

// SetCallHandler sets a custom call handler for this client.
func (c *MockClient) SetCallHandler(f func(ctx context.Context, req bridge.ToolCallRequest) (*bridge.ToolCallResponse, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callFunc = f
}

// SetCallDelay sets a delay for all tool calls.
func (c *MockClient) SetCallDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callDelay = d
}

// SetPingFunc sets a custom ping function.
func (c *MockClient) SetPingFunc(f func(ctx context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pingFunc = f
}

// SetCloseFunc sets a custom close function.
func (c *MockClient) SetCloseFunc(f func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeFunc = f
}

// MockBackend configures how the dialer behaves for one backend id.
type MockBackend struct {
	Tools       []bridge.ToolDefinition
	CallHandler func(ctx context.Context, req bridge.ToolCallRequest) (*bridge.ToolCallResponse, error)
	DialError   error
	DialDelay   time.Duration

	// FailDials makes the first N dial attempts fail with DialError before
	// succeeding (0 with a non-nil DialError fails every attempt)
	FailDials int
}

// MockDialer hands out MockClients in place of real subprocess connections.
// It tracks dial counts per backend so tests can assert connection reuse and
// retry behavior.
type MockDialer struct {
	backends  map[string]*MockBackend
	clients   map[string][]*MockClient
	dialCount map[string]int
	mu        sync.Mutex
}

// NewMockDialer creates a dialer with no configured backends. Dialing an
// unconfigured backend succeeds with an empty tool list.
func NewMockDialer() *MockDialer {
	return &MockDialer{
		backends:  make(map[string]*MockBackend),
		clients:   make(map[string][]*MockClient),
		dialCount: make(map[string]int),
	}
}

// AddBackend pre-configures dial behavior for a backend id.
func (d *MockDialer) AddBackend(id string, mb MockBackend) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.backends[id] = &mb
}

// Dial implements bridge.Dialer.
func (d *MockDialer) Dial(ctx context.Context, cfg bridge.BackendConfig) (bridge.BackendClient, error) {
	d.mu.Lock()
	mb, exists := d.backends[cfg.ID]
	d.dialCount[cfg.ID]++
	attempt := d.dialCount[cfg.ID]
	d.mu.Unlock()

	if !exists {
		mb = &MockBackend{}
	}

	if mb.DialDelay > 0 {
		select {
		case <-time.After(mb.DialDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if mb.DialError != nil {
		if mb.FailDials == 0 || attempt <= mb.FailDials {
			return nil, mb.DialError
		}
	}

	client := NewMockClient(cfg.ID, mb.Tools)
	if mb.CallHandler != nil {
		client.SetCallHandler(mb.CallHandler)
	}

	d.mu.Lock()
	d.clients[cfg.ID] = append(d.clients[cfg.ID], client)
	d.mu.Unlock()

	return client, nil
}

// DialCount returns how many times this backend has been dialed.
func (d *MockDialer) DialCount(id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dialCount[id]
}

// LatestClient returns the most recently dialed client for a backend, or nil
// if it was never dialed successfully.
func (d *MockDialer) LatestClient(id string) *MockClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	clients := d.clients[id]
	if len(clients) == 0 {
		return nil
	}
	return clients[len(clients)-1]
}

// Clients returns every client dialed for a backend in order.
func (d *MockDialer) Clients(id string) []*MockClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*MockClient, len(d.clients[id]))
	copy(out, d.clients[id])
	return out
}
