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
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Backend owns one subprocess-based backend connection: connect/disconnect,
// tool discovery, tool invocation with timeout, and a health probe.
//
// The connection handle is exclusively owned by the Backend and mutated only
// by Connect/Disconnect and the connection-lost handler. A Backend is
// connected if and only if its handle is non-nil.
type Backend struct {
	cfg    BackendConfig
	logger *slog.Logger
	dial   Dialer

	// onDisconnect is notified after an unexpected transport closure has
	// cleared the connected state.
	onDisconnect func(backendID string, err error)

	mu sync.Mutex

	// client is the live connection handle; nil when disconnected
	client BackendClient

	// pid is the subprocess identifier from the last successful connect
	pid int

	// lastError is retained after disconnect for diagnostics
	lastError string

	// tools is the discovered tool list, replaced wholesale on each
	// discovery. Not cleared on disconnect so last-known state remains
	// inspectable; it must not be trusted as live while disconnected.
	tools []ToolDefinition

	// connecting is non-nil while a connect attempt is in flight; waiters
	// block on it so concurrent Connect calls coalesce into one attempt
	connecting chan struct{}

	// connectErr is the outcome of the last completed connect attempt
	connectErr error
}

// BackendOption customizes a Backend.
type BackendOption func(*Backend)

// WithDialer overrides the transport dialer. Used by tests to inject mocks.
func WithDialer(dial Dialer) BackendOption {
	return func(b *Backend) { b.dial = dial }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) BackendOption {
	return func(b *Backend) { b.logger = logger }
}

// WithDisconnectHandler sets the hook notified on unexpected transport
// closure. This is how the registry learns about asynchronous failures
// outside of any call in progress.
func WithDisconnectHandler(fn func(backendID string, err error)) BackendOption {
	return func(b *Backend) { b.onDisconnect = fn }
}

// NewBackend creates a Backend for the given configuration. The backend
// starts disconnected; call Connect to launch the subprocess.
func NewBackend(cfg BackendConfig, opts ...BackendOption) *Backend {
	cfg.applyDefaults()

	b := &Backend{
		cfg:    cfg,
		dial:   DialStdio,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ID returns the backend's unique identifier.
func (b *Backend) ID() string {
	return b.cfg.ID
}

// Name returns the backend's display name.
func (b *Backend) Name() string {
	return b.cfg.Name
}

// Connected reports whether the backend holds a live connection.
func (b *Backend) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client != nil
}

// Tools returns a copy of the most recently discovered tool list.
func (b *Backend) Tools() []ToolDefinition {
	b.mu.Lock()
	defer b.mu.Unlock()

	tools := make([]ToolDefinition, len(b.tools))
	copy(tools, b.tools)
	return tools
}

// Status returns a point-in-time snapshot of the backend's state.
func (b *Backend) Status() BackendStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BackendStatus{
		ID:        b.cfg.ID,
		Name:      b.cfg.Name,
		Connected: b.client != nil,
		PID:       b.pid,
		LastError: b.lastError,
		ToolCount: len(b.tools),
	}
}

// Connect establishes the backend connection. Idempotent: if already
// connected it returns immediately, and concurrent callers share a single
// in-flight attempt so the subprocess is never launched twice.
//
// A successful connect includes the protocol handshake and an initial tool
// discovery; the backend is not considered ready until both complete.
func (b *Backend) Connect(ctx context.Context) error {
	b.mu.Lock()
	if b.client != nil {
		b.mu.Unlock()
		return nil
	}

	if ch := b.connecting; ch != nil {
		// Another attempt is in flight; await its outcome.
		b.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.client != nil {
			return nil
		}
		if b.connectErr != nil {
			return b.connectErr
		}
		return fmt.Errorf("connect to backend %s failed", b.cfg.ID)
	}

	ch := make(chan struct{})
	b.connecting = ch
	b.mu.Unlock()

	client, tools, err := b.dialAndDiscover(ctx)

	b.mu.Lock()
	current := b.connecting == ch
	if current {
		b.connecting = nil
		b.connectErr = err
	}
	if err != nil {
		b.lastError = err.Error()
	} else if current {
		b.client = client
		b.tools = tools
		b.pid = client.PID()
		b.lastError = ""
	}
	b.mu.Unlock()
	close(ch)

	if !current && client != nil {
		// Disconnect raced with this attempt; discard the fresh connection.
		_ = client.Close()
	}

	recordConnect(b.cfg.ID, err)
	if err != nil {
		return err
	}

	b.logger.Debug("backend connected",
		"backend", b.cfg.ID,
		"tools", len(tools),
	)
	return nil
}

// dialAndDiscover opens the transport, wires the connection-lost handler,
// and performs the initial tool discovery.
func (b *Backend) dialAndDiscover(ctx context.Context) (BackendClient, []ToolDefinition, error) {
	dialCtx, cancel := context.WithTimeout(ctx, b.cfg.ConnectTimeout)
	defer cancel()

	client, err := b.dial(dialCtx, b.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to backend %s failed: %w", b.cfg.ID, err)
	}

	client.OnConnectionLost(b.handleConnectionLost)

	listCtx, cancelList := context.WithTimeout(ctx, b.cfg.ListTimeout)
	defer cancelList()

	tools, err := client.ListTools(listCtx)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("tool discovery for backend %s failed: %w", b.cfg.ID, err)
	}

	return client, tools, nil
}

// handleConnectionLost clears the connected state when the transport closes
// unexpectedly (backend subprocess died or the pipe broke). It only mutates
// state; it never performs I/O on the connection.
func (b *Backend) handleConnectionLost(err error) {
	b.mu.Lock()
	if b.client == nil {
		b.mu.Unlock()
		return
	}
	b.client = nil
	if err != nil {
		b.lastError = err.Error()
	} else {
		b.lastError = "connection closed unexpectedly"
	}
	b.mu.Unlock()

	disconnectsTotal.WithLabelValues(b.cfg.ID).Inc()

	if b.onDisconnect != nil {
		b.onDisconnect(b.cfg.ID, err)
	}
}

// Disconnect closes the connection. Always safe to call, including when
// already disconnected; teardown errors are ignored.
func (b *Backend) Disconnect() {
	b.mu.Lock()
	client := b.client
	b.client = nil
	b.connecting = nil
	b.connectErr = nil
	b.mu.Unlock()

	if client != nil {
		_ = client.Close()
	}
}

// RefreshTools re-runs tool discovery and replaces the cached tool list
// wholesale. Requires an active connection.
func (b *Backend) RefreshTools(ctx context.Context) error {
	b.mu.Lock()
	client := b.client
	b.mu.Unlock()

	if client == nil {
		return ErrNotConnected(b.cfg.ID, nil)
	}

	listCtx, cancel := context.WithTimeout(ctx, b.cfg.ListTimeout)
	defer cancel()

	tools, err := client.ListTools(listCtx)
	if err != nil {
		return fmt.Errorf("tool discovery for backend %s failed: %w", b.cfg.ID, err)
	}

	b.mu.Lock()
	b.tools = tools
	b.mu.Unlock()

	return nil
}

// CallTool invokes a backend tool by its remote name. If the backend is
// disconnected it first attempts to connect. Transport-classified failures
// trigger exactly one teardown, reconnect, and retry; any other failure is
// surfaced as-is.
func (b *Backend) CallTool(ctx context.Context, remoteName string, args map[string]interface{}) (*ToolCallResponse, error) {
	start := time.Now()
	resp, err := b.callWithRetry(ctx, remoteName, args)
	recordCall(b.cfg.ID, time.Since(start).Seconds(), err)
	return resp, err
}

func (b *Backend) callWithRetry(ctx context.Context, remoteName string, args map[string]interface{}) (*ToolCallResponse, error) {
	client := b.currentClient()
	if client == nil {
		if err := b.Connect(ctx); err != nil {
			return nil, ErrNotConnected(b.cfg.ID, err)
		}
		client = b.currentClient()
		if client == nil {
			return nil, ErrNotConnected(b.cfg.ID, nil)
		}
	}

	resp, err := b.invoke(ctx, client, remoteName, args)
	if err == nil {
		return resp, nil
	}
	if !isTransportError(err) {
		return nil, err
	}

	// Transport failure: tear down, reconnect, retry exactly once.
	callRetriesTotal.WithLabelValues(b.cfg.ID).Inc()
	b.logger.Warn("transport failure during tool call, reconnecting",
		"backend", b.cfg.ID,
		"tool", remoteName,
		"error", err,
	)

	b.Disconnect()
	if cerr := b.Connect(ctx); cerr != nil {
		return nil, ErrCallFailed(b.cfg.ID, remoteName, cerr)
	}
	client = b.currentClient()
	if client == nil {
		return nil, ErrCallFailed(b.cfg.ID, remoteName, errors.New("reconnect did not yield a connection"))
	}

	resp, rerr := b.invoke(ctx, client, remoteName, args)
	if rerr != nil {
		return nil, ErrCallFailed(b.cfg.ID, remoteName, rerr)
	}
	return resp, nil
}

// invoke performs one tool call bounded by the backend's call timeout.
func (b *Backend) invoke(ctx context.Context, client BackendClient, remoteName string, args map[string]interface{}) (*ToolCallResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, b.cfg.CallTimeout)
	defer cancel()

	return client.CallTool(callCtx, ToolCallRequest{
		Name:      remoteName,
		Arguments: args,
	})
}

// currentClient returns the live connection handle, nil when disconnected.
func (b *Backend) currentClient() BackendClient {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client
}

// HealthCheck probes the backend by re-running tool discovery. Returns false
// if not connected or discovery fails; never returns an error.
func (b *Backend) HealthCheck(ctx context.Context) bool {
	if !b.Connected() {
		return false
	}
	return b.RefreshTools(ctx) == nil
}
