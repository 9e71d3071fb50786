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
	"log/slog"
	"sort"
	"sync"
)

// Registry owns the set of live backend connections and the routing table
// from exposed tool name to backend id. It is constructed explicitly and
// passed to whatever needs it; shutdown returns it to a state equivalent to
// never having been constructed.
type Registry struct {
	logger *slog.Logger

	// dial is passed through to new backends; nil means the stdio default
	dial Dialer

	mu sync.RWMutex

	// backends maps backend id to its connection (exclusive ownership)
	backends map[string]*Backend

	// routes maps exposed tool name to backend id. Every value must
	// reference a key present in backends.
	routes map[string]string
}

// RegistryConfig configures a backend registry.
type RegistryConfig struct {
	// Logger is used for structured logging (optional)
	Logger *slog.Logger

	// Dialer overrides the backend transport dialer (optional, for tests)
	Dialer Dialer
}

// NewRegistry creates a new backend registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		logger:   logger,
		dial:     cfg.Dialer,
		backends: make(map[string]*Backend),
		routes:   make(map[string]string),
	}
}

// AddBackend registers and connects a backend. If a backend with this id is
// already registered, its current connected state is returned without
// reconnecting. Returns whether the backend is connected; never returns an
// error - a failed backend is logged and excluded so the others continue to
// operate normally.
func (r *Registry) AddBackend(ctx context.Context, cfg BackendConfig) bool {
	r.mu.Lock()
	if existing, ok := r.backends[cfg.ID]; ok {
		r.mu.Unlock()
		return existing.Connected()
	}

	opts := []BackendOption{
		WithLogger(r.logger),
		WithDisconnectHandler(func(backendID string, err error) {
			r.logger.Warn("backend disconnected unexpectedly",
				"backend", backendID,
				"error", err,
			)
		}),
	}
	if r.dial != nil {
		opts = append(opts, WithDialer(r.dial))
	}

	backend := NewBackend(cfg, opts...)
	r.backends[cfg.ID] = backend
	r.mu.Unlock()

	if err := backend.Connect(ctx); err != nil {
		r.logger.Warn("backend unavailable",
			"backend", cfg.ID,
			"error", err,
		)
		return false
	}

	return true
}

// Backend returns the connection for a backend id.
func (r *Registry) Backend(id string) (*Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	backend, ok := r.backends[id]
	return backend, ok
}

// MapTool inserts one routing entry from exposed tool name to backend id.
// Called once per tool during registration, never at call time.
func (r *Registry) MapTool(exposedName, backendID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[exposedName] = backendID
}

// RouteCount returns the number of routing entries.
func (r *Registry) RouteCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// CallTool routes a call by exposed tool name to the owning backend and
// invokes the backend's remote tool name.
func (r *Registry) CallTool(ctx context.Context, exposedName, remoteName string, args map[string]interface{}) (*ToolCallResponse, error) {
	r.mu.RLock()
	backendID, ok := r.routes[exposedName]
	var backend *Backend
	if ok {
		backend = r.backends[backendID]
	}
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNoRoute(exposedName)
	}
	if backend == nil {
		// Should be impossible given the routing invariant; checked anyway.
		return nil, ErrBackendMissing(backendID)
	}

	return backend.CallTool(ctx, remoteName, args)
}

// HealthCheckAll probes every backend concurrently and returns a map of
// backend id to liveness. Failing backends are logged individually and do
// not block the others.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]bool {
	r.mu.RLock()
	backends := make([]*Backend, 0, len(r.backends))
	for _, b := range r.backends {
		backends = append(backends, b)
	}
	r.mu.RUnlock()

	results := make(map[string]bool, len(backends))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup

	for _, backend := range backends {
		wg.Add(1)
		go func(b *Backend) {
			defer wg.Done()
			healthy := b.HealthCheck(ctx)
			if !healthy {
				r.logger.Warn("backend health check failed", "backend", b.ID())
			}
			resultsMu.Lock()
			results[b.ID()] = healthy
			resultsMu.Unlock()
		}(backend)
	}

	wg.Wait()
	return results
}

// ShutdownAll disconnects every backend concurrently, swallowing individual
// teardown errors, then clears the backend map and routing table. Safe to
// call even if some backends never connected.
func (r *Registry) ShutdownAll(ctx context.Context) {
	r.mu.Lock()
	backends := make([]*Backend, 0, len(r.backends))
	for _, b := range r.backends {
		backends = append(backends, b)
	}
	r.backends = make(map[string]*Backend)
	r.routes = make(map[string]string)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for _, backend := range backends {
		wg.Add(1)
		go func(b *Backend) {
			defer wg.Done()
			b.Disconnect()
		}(backend)
	}
	wg.Wait()

	r.logger.Info("all backends shut down", "count", len(backends))
}

// Status returns a snapshot of every backend, sorted by id.
func (r *Registry) Status() []BackendStatus {
	r.mu.RLock()
	backends := make([]*Backend, 0, len(r.backends))
	for _, b := range r.backends {
		backends = append(backends, b)
	}
	r.mu.RUnlock()

	statuses := make([]BackendStatus, 0, len(backends))
	for _, backend := range backends {
		statuses = append(statuses, backend.Status())
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })

	return statuses
}

// ConnectedCount returns the number of currently connected backends.
func (r *Registry) ConnectedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, backend := range r.backends {
		if backend.Connected() {
			count++
		}
	}
	return count
}
