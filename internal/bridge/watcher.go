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
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher monitors the backend configuration file and invokes a
// callback when it changes, so a long-running bridge can pick up added or
// removed backends without a restart.
type ConfigWatcher struct {
	// fsWatcher is the underlying filesystem watcher
	fsWatcher *fsnotify.Watcher

	// path is the watched configuration file
	path string

	// onChange is invoked (debounced) after the file changes
	onChange func()

	// logger is used for structured logging
	logger *slog.Logger

	// debounceDelay is the delay before firing after a burst of events
	debounceDelay time.Duration

	// pending is the debounce timer for an in-flight change
	pending *time.Timer

	// mu protects pending
	mu sync.Mutex

	// ctx is the watcher's lifecycle context
	ctx context.Context

	// cancel stops the watcher
	cancel context.CancelFunc

	// wg tracks the event loop goroutine
	wg sync.WaitGroup
}

// ConfigWatcherConfig configures a ConfigWatcher.
type ConfigWatcherConfig struct {
	// Path is the configuration file to watch (defaults to ConfigPath())
	Path string

	// OnChange is invoked after the file changes, debounced
	OnChange func()

	// Logger is used for structured logging (optional)
	Logger *slog.Logger

	// DebounceDelay is the delay before firing after file changes
	// (defaults to 200ms)
	DebounceDelay time.Duration
}

// NewConfigWatcher creates a watcher on the backend configuration file.
// Editors typically replace files on save, so the parent directory is
// watched and events are filtered to the configured path.
func NewConfigWatcher(cfg ConfigWatcherConfig) (*ConfigWatcher, error) {
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("onChange callback is required")
	}

	path := cfg.Path
	if path == "" {
		resolved, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = resolved
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	debounceDelay := cfg.DebounceDelay
	if debounceDelay == 0 {
		debounceDelay = 200 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &ConfigWatcher{
		fsWatcher:     fsWatcher,
		path:          absPath,
		onChange:      cfg.OnChange,
		logger:        logger,
		debounceDelay: debounceDelay,
		ctx:           ctx,
		cancel:        cancel,
	}

	w.wg.Add(1)
	go w.processEvents()

	return w, nil
}

// Path returns the watched configuration file path.
func (w *ConfigWatcher) Path() string {
	return w.path
}

// processEvents processes filesystem events and schedules debounced reloads.
func (w *ConfigWatcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.matchesPath(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				w.scheduleReload()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", "error", err)

		case <-w.ctx.Done():
			return
		}
	}
}

func (w *ConfigWatcher) matchesPath(eventPath string) bool {
	abs, err := filepath.Abs(eventPath)
	if err != nil {
		return false
	}
	return abs == w.path
}

// scheduleReload arms (or re-arms) the debounce timer. Bursts of events
// from one save collapse into a single callback.
func (w *ConfigWatcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.Stop()
	}

	w.pending = time.AfterFunc(w.debounceDelay, func() {
		select {
		case <-w.ctx.Done():
			return
		default:
		}
		w.logger.Info("backend configuration changed, reloading", "path", w.path)
		w.onChange()
	})
}

// Close stops watching and waits for the event loop to exit.
func (w *ConfigWatcher) Close() error {
	w.cancel()

	w.mu.Lock()
	if w.pending != nil {
		w.pending.Stop()
		w.pending = nil
	}
	w.mu.Unlock()

	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}
