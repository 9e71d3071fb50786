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

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "backends.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv(ConfigPathEnv, path)
	return path
}

func TestLoadBackendConfigs(t *testing.T) {
	writeConfigFile(t, `
backends:
  filesystem:
    command: npx
    args: ["-y", "@modelcontextprotocol/server-filesystem", "/data"]
  github:
    name: GitHub
    command: npx
    args: ["-y", "@modelcontextprotocol/server-github"]
    env:
      - GITHUB_PERSONAL_ACCESS_TOKEN=${GITHUB_TOKEN}
    call_timeout: 120
`)

	configs, err := LoadBackendConfigs()
	require.NoError(t, err)
	require.Len(t, configs, 2)

	// Sorted by id for deterministic startup.
	fs, gh := configs[0], configs[1]
	assert.Equal(t, "filesystem", fs.ID)
	assert.Equal(t, "filesystem", fs.Name, "display name defaults to id")
	assert.Equal(t, "npx", fs.Command)
	assert.Equal(t, DefaultConnectTimeout, fs.ConnectTimeout)
	assert.Equal(t, DefaultCallTimeout, fs.CallTimeout)

	assert.Equal(t, "github", gh.ID)
	assert.Equal(t, "GitHub", gh.Name)
	assert.Equal(t, 120*time.Second, gh.CallTimeout)
	assert.Equal(t, DefaultListTimeout, gh.ListTimeout)
}

func TestLoadBackendConfigs_MissingFile(t *testing.T) {
	t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	configs, err := LoadBackendConfigs()
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestLoadBackendConfigs_InvalidID(t *testing.T) {
	writeConfigFile(t, `
backends:
  "9bad id":
    command: npx
`)

	_, err := LoadBackendConfigs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid backend id")
}

func TestLoadBackendConfigs_MissingCommand(t *testing.T) {
	writeConfigFile(t, `
backends:
  filesystem:
    args: ["/data"]
`)

	_, err := LoadBackendConfigs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command is required")
}

func TestLoadBackendConfigs_Malformed(t *testing.T) {
	writeConfigFile(t, "backends: [not a map")

	_, err := LoadBackendConfigs()
	require.Error(t, err)
}

func TestConfigPath_EnvOverride(t *testing.T) {
	t.Setenv(ConfigPathEnv, "/tmp/custom.yaml")

	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.yaml", path)
}

func TestConfigPath_Default(t *testing.T) {
	t.Setenv(ConfigPathEnv, "")

	path, err := ConfigPath()
	require.NoError(t, err)
	assert.Contains(t, path, filepath.Join(".config", "toolbridge", "backends.yaml"))
}

func TestBackendNameRegex(t *testing.T) {
	valid := []string{"filesystem", "github", "My-Backend_2", "a"}
	for _, id := range valid {
		assert.True(t, BackendNameRegex.MatchString(id), id)
	}

	invalid := []string{"", "9starts-with-digit", "-leading-hyphen", "has space", "has.dot"}
	for _, id := range invalid {
		assert.False(t, BackendNameRegex.MatchString(id), id)
	}
}

func TestBackendConfig_ExpandedEnv(t *testing.T) {
	t.Setenv("TEST_BRIDGE_TOKEN", "s3cret")

	cfg := BackendConfig{
		Env: []string{
			"API_TOKEN=${TEST_BRIDGE_TOKEN}",
			"PLAIN=value",
			"UNSET=${TEST_BRIDGE_DOES_NOT_EXIST}",
		},
	}

	got := cfg.ExpandedEnv()
	assert.Equal(t, []string{
		"API_TOKEN=s3cret",
		"PLAIN=value",
		"UNSET=",
	}, got)
}

func TestBackendConfig_ExpandedEnv_Empty(t *testing.T) {
	cfg := BackendConfig{}
	assert.Nil(t, cfg.ExpandedEnv())
}
