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
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// BackendNameRegex validates backend ids.
// Ids must start with a letter and contain only letters, numbers, hyphens,
// and underscores. Maximum length is 64 characters.
var BackendNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{0,63}$`)

// Default timeouts for backend operations.
const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultListTimeout    = 15 * time.Second
	DefaultCallTimeout    = 60 * time.Second
)

// ConfigPathEnv overrides the backend configuration file location.
const ConfigPathEnv = "TOOLBRIDGE_BACKENDS"

// BackendConfig defines how to launch and reach one backend subprocess.
type BackendConfig struct {
	// ID is the unique identifier for this backend
	ID string

	// Name is the display name (defaults to ID)
	Name string

	// Command is the executable to run (e.g., "npx", "python")
	Command string

	// Args are command-line arguments
	Args []string

	// Env are environment variables in KEY=VALUE format, passed to the
	// subprocess. Values support ${VAR} substitution from the bridge's own
	// environment, which is how per-backend secrets (API keys) are supplied.
	Env []string

	// ConnectTimeout bounds the launch-and-handshake phase (default 15s)
	ConnectTimeout time.Duration

	// ListTimeout bounds tool discovery (default 15s)
	ListTimeout time.Duration

	// CallTimeout bounds a single tool call (default 60s)
	CallTimeout time.Duration
}

// BackendEntry is the on-disk shape of a single backend configuration.
// Timeouts are expressed in seconds.
type BackendEntry struct {
	// Name is the display name (defaults to the entry's id).
	Name string `yaml:"name,omitempty"`

	// Command is the executable to run.
	Command string `yaml:"command"`

	// Args are command-line arguments.
	Args []string `yaml:"args,omitempty"`

	// Env are environment variables in KEY=VALUE format.
	// Supports ${VAR} syntax for runtime variable substitution.
	Env []string `yaml:"env,omitempty"`

	// ConnectTimeout is the connect timeout in seconds (default 15).
	ConnectTimeout int `yaml:"connect_timeout,omitempty"`

	// ListTimeout is the tool discovery timeout in seconds (default 15).
	ListTimeout int `yaml:"list_timeout,omitempty"`

	// CallTimeout is the tool call timeout in seconds (default 60).
	CallTimeout int `yaml:"call_timeout,omitempty"`
}

// backendConfigFile is the on-disk shape of the backend configuration file.
type backendConfigFile struct {
	// Backends is a map of backend id to configuration.
	Backends map[string]*BackendEntry `yaml:"backends,omitempty"`
}

// ToBackendConfig converts a file entry to a runtime configuration.
func (e *BackendEntry) ToBackendConfig(id string) BackendConfig {
	cfg := BackendConfig{
		ID:             id,
		Name:           e.Name,
		Command:        e.Command,
		Args:           e.Args,
		Env:            e.Env,
		ConnectTimeout: time.Duration(e.ConnectTimeout) * time.Second,
		ListTimeout:    time.Duration(e.ListTimeout) * time.Second,
		CallTimeout:    time.Duration(e.CallTimeout) * time.Second,
	}
	cfg.applyDefaults()
	return cfg
}

// Validate validates a single file entry.
func (e *BackendEntry) Validate() error {
	if e.Command == "" {
		return fmt.Errorf("command is required")
	}
	if e.ConnectTimeout < 0 || e.ListTimeout < 0 || e.CallTimeout < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	return nil
}

// ConfigPath returns the path to the backend configuration file.
// The TOOLBRIDGE_BACKENDS environment variable overrides the fixed default.
func ConfigPath() (string, error) {
	if path := os.Getenv(ConfigPathEnv); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "toolbridge", "backends.yaml"), nil
}

// LoadBackendConfigs loads backend configurations from disk.
// Returns an empty list if the file doesn't exist. Results are sorted by id
// so startup ordering is deterministic.
func LoadBackendConfigs() ([]BackendConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var file backendConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	configs := make([]BackendConfig, 0, len(file.Backends))
	for id, entry := range file.Backends {
		if entry == nil {
			continue
		}
		if !BackendNameRegex.MatchString(id) {
			return nil, fmt.Errorf("invalid backend id %q: must start with a letter and contain only letters, numbers, hyphens, and underscores", id)
		}
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("backend %q: %w", id, err)
		}
		configs = append(configs, entry.ToBackendConfig(id))
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })

	return configs, nil
}

// applyDefaults fills in display name and timeout defaults.
func (c *BackendConfig) applyDefaults() {
	if c.Name == "" {
		c.Name = c.ID
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.ListTimeout == 0 {
		c.ListTimeout = DefaultListTimeout
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = DefaultCallTimeout
	}
}

// ExpandedEnv returns the backend's environment entries with ${VAR}
// references substituted from the bridge's own environment. Unset variables
// expand to the empty string.
func (c *BackendConfig) ExpandedEnv() []string {
	if len(c.Env) == 0 {
		return nil
	}

	expanded := make([]string, len(c.Env))
	for i, entry := range c.Env {
		expanded[i] = os.Expand(entry, func(key string) string {
			return os.Getenv(key)
		})
	}
	return expanded
}
