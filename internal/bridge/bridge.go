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
	"sync"

	"github.com/tombee/toolbridge/internal/bridge/catalog"
	"github.com/tombee/toolbridge/pkg/tools"
)

// Bridge is the entry point used by the calling system. It connects
// configured backends, applies catalog filters to decide which tools to
// expose, installs each exposed tool on the host registry, and provides
// shutdown/status/health diagnostics.
//
// A Bridge holds exactly one backend Registry for its lifetime; construct it
// explicitly and pass it to whatever needs it.
type Bridge struct {
	logger   *slog.Logger
	registry *Registry
	host     *tools.Registry

	mu sync.Mutex

	// installed tracks the exposed names currently registered on the host
	installed []string
}

// Options filters which tools Register exposes. All fields are optional and
// composable; the zero value registers every tool from every backend that
// successfully connects.
type Options struct {
	// Categories keeps only tools in at least one of these categories
	Categories []catalog.Category

	// MaxPriority keeps only tools with priority <= MaxPriority (0 = no ceiling)
	MaxPriority int

	// TagQuery keeps only tools whose tags match these free-text terms,
	// ordered by relevance
	TagQuery []string

	// Backends is an allow-list of backend ids to attempt (empty = all configured)
	Backends []string

	// Configs overrides the on-disk backend configuration. Used by tests and
	// embedding systems that manage configuration themselves.
	Configs []BackendConfig
}

// New creates a bridge facade over the given host registry and backend
// registry.
func New(host *tools.Registry, registry *Registry, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		logger:   logger,
		registry: registry,
		host:     host,
	}
}

// Registry returns the underlying backend registry.
func (b *Bridge) Registry() *Registry {
	return b.registry
}

// Register runs the full startup sequence: connect configured backends,
// intersect the catalog with the connected set and the option filters, and
// install a callable wrapper on the host for each surviving entry.
//
// If zero backends connect the bridge degrades to "no tools available"
// rather than failing the host process.
func (b *Bridge) Register(ctx context.Context, opts Options) error {
	configs := opts.Configs
	if configs == nil {
		loaded, err := LoadBackendConfigs()
		if err != nil {
			return err
		}
		configs = loaded
	}

	if len(opts.Backends) > 0 {
		allowed := make(map[string]bool, len(opts.Backends))
		for _, id := range opts.Backends {
			allowed[id] = true
		}
		filtered := configs[:0:0]
		for _, cfg := range configs {
			if allowed[cfg.ID] {
				filtered = append(filtered, cfg)
			}
		}
		configs = filtered
	}

	// Connect all backends concurrently; collect which ids actually came up.
	connected := make(map[string]bool, len(configs))
	var connectedMu sync.Mutex
	var wg sync.WaitGroup

	for _, cfg := range configs {
		wg.Add(1)
		go func(cfg BackendConfig) {
			defer wg.Done()
			ok := b.registry.AddBackend(ctx, cfg)
			connectedMu.Lock()
			connected[cfg.ID] = ok
			connectedMu.Unlock()
		}(cfg)
	}
	wg.Wait()

	connectedIDs := make(map[string]bool)
	for id, ok := range connected {
		if ok {
			connectedIDs[id] = true
		}
	}

	if len(connectedIDs) == 0 {
		b.logger.Warn("no backends connected, no tools will be bridged",
			"attempted", len(configs),
		)
		return nil
	}

	// Intersect the catalog with the connected set, then with each
	// requested filter in turn.
	full := catalog.All()
	entries := catalog.FilterByBackends(full, connectedIDs)
	if len(opts.Categories) > 0 {
		entries = catalog.FilterByCategory(entries, opts.Categories)
	}
	if opts.MaxPriority > 0 {
		entries = catalog.FilterByMaxPriority(entries, opts.MaxPriority)
	}
	if len(opts.TagQuery) > 0 {
		entries = catalog.SearchByTags(entries, opts.TagQuery)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, entry := range entries {
		b.registry.MapTool(entry.Name, entry.Backend)

		tool := NewBridgedTool(entry, b.registry, b.logger)
		if err := b.host.Register(tool); err != nil {
			b.logger.Warn("failed to install bridged tool",
				"tool", entry.Name,
				"error", err,
			)
			continue
		}
		b.installed = append(b.installed, entry.Name)
	}

	b.logger.Info("bridged tools registered",
		"registered", len(b.installed),
		"catalog", len(full),
		"backends_connected", len(connectedIDs),
		"backends_attempted", len(configs),
	)
	for id, ok := range connected {
		b.logger.Info("backend connect outcome", "backend", id, "connected", ok)
	}

	return nil
}

// BridgeStatus is the diagnostics snapshot for the whole bridge.
type BridgeStatus struct {
	// Backends holds one status entry per registered backend
	Backends []BackendStatus `json:"backends"`

	// RegisteredTools is the number of tools currently installed on the host
	RegisteredTools int `json:"registeredTools"`

	// HealthyBackends is the number of currently connected backends
	HealthyBackends int `json:"healthyBackends"`
}

// Status returns per-backend state plus the registered tool count.
func (b *Bridge) Status() BridgeStatus {
	statuses := b.registry.Status()

	healthy := 0
	for _, s := range statuses {
		if s.Connected {
			healthy++
		}
	}

	b.mu.Lock()
	registered := len(b.installed)
	b.mu.Unlock()

	return BridgeStatus{
		Backends:        statuses,
		RegisteredTools: registered,
		HealthyBackends: healthy,
	}
}

// HealthCheckAll probes every backend concurrently.
func (b *Bridge) HealthCheckAll(ctx context.Context) map[string]bool {
	return b.registry.HealthCheckAll(ctx)
}

// Shutdown disconnects all backends, uninstalls the bridged tools from the
// host, and resets the facade so a subsequent Register starts clean.
func (b *Bridge) Shutdown(ctx context.Context) {
	b.registry.ShutdownAll(ctx)

	b.mu.Lock()
	installed := b.installed
	b.installed = nil
	b.mu.Unlock()

	for _, name := range installed {
		if err := b.host.Unregister(name); err != nil {
			b.logger.Warn("failed to uninstall bridged tool",
				"tool", name,
				"error", err,
			)
		}
	}
}
