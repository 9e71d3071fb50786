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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigWatcher_FiresOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backends.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backends: {}\n"), 0o644))

	changed := make(chan struct{}, 1)
	w, err := NewConfigWatcher(ConfigWatcherConfig{
		Path: path,
		OnChange: func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		},
		DebounceDelay: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("backends:\n  fs:\n    command: npx\n"), 0o644))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not fire after config change")
	}
}

func TestConfigWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backends.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backends: {}\n"), 0o644))

	changed := make(chan struct{}, 16)
	w, err := NewConfigWatcher(ConfigWatcherConfig{
		Path: path,
		OnChange: func() {
			changed <- struct{}{}
		},
		DebounceDelay: 100 * time.Millisecond,
	})
	require.NoError(t, err)
	defer w.Close()

	// Several rapid writes collapse into one callback.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("backends: {}\n"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not fire after config change")
	}

	select {
	case <-changed:
		t.Fatal("watcher fired more than once for a single burst")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConfigWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backends.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backends: {}\n"), 0o644))

	changed := make(chan struct{}, 1)
	w, err := NewConfigWatcher(ConfigWatcherConfig{
		Path:          path,
		OnChange:      func() { changed <- struct{}{} },
		DebounceDelay: 20 * time.Millisecond,
	})
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o644))

	select {
	case <-changed:
		t.Fatal("watcher fired for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConfigWatcher_RequiresCallback(t *testing.T) {
	_, err := NewConfigWatcher(ConfigWatcherConfig{Path: "/tmp/x.yaml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "onChange callback is required")
}

func TestConfigWatcher_Close(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backends.yaml")

	w, err := NewConfigWatcher(ConfigWatcherConfig{
		Path:     path,
		OnChange: func() {},
	})
	require.NoError(t, err)
	assert.Equal(t, path, w.Path())

	require.NoError(t, w.Close())
	// Close is safe to call with events no longer flowing.
}
