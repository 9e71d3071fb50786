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

import "context"

// BackendClient is the transport-level connection to one backend subprocess.
// This interface enables dependency injection and testing with mock
// implementations; the production implementation is Client.
type BackendClient interface {
	// ListTools retrieves the list of available tools from the backend.
	ListTools(ctx context.Context) ([]ToolDefinition, error)

	// CallTool executes a backend tool and returns the normalized result.
	CallTool(ctx context.Context, req ToolCallRequest) (*ToolCallResponse, error)

	// Ping checks if the backend is still responsive.
	Ping(ctx context.Context) error

	// Close closes the connection and stops the subprocess.
	Close() error

	// PID returns the backend subprocess identifier, 0 when unknown.
	PID() int

	// OnConnectionLost registers a handler invoked when the transport closes
	// unexpectedly. The handler must not perform I/O.
	OnConnectionLost(handler func(error))
}

// Dialer opens a transport connection for a backend configuration. The
// returned client has completed its handshake and is ready for requests.
// Production code uses DialStdio; tests inject mocks.
type Dialer func(ctx context.Context, cfg BackendConfig) (BackendClient, error)
