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
	"io"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"eof", io.EOF, true},
		{"wrapped eof", fmt.Errorf("read response: %w", io.EOF), true},
		{"closed pipe", io.ErrClosedPipe, true},
		{"epipe", syscall.EPIPE, true},
		{"econnreset", syscall.ECONNRESET, true},
		{"broken pipe message", errors.New("write |1: broken pipe"), true},
		{"reset message", errors.New("connection reset by peer"), true},
		{"transport message", errors.New("transport error: session terminated"), true},
		{"connection closed message", errors.New("connection closed"), true},
		{"case insensitive", errors.New("Transport Error"), true},
		{"application error", errors.New("invalid arguments: path is required"), false},
		{"tool not found", errors.New("unknown tool: read_file"), false},
		{"context deadline", context.DeadlineExceeded, false},
		{"context cancel", context.Canceled, false},
		{"bridge error never retried", ErrMalformedResult("fs", "read_file", "empty content type"), false},
		{"bridge error with transport words", ErrNotConnected("fs", errors.New("connection closed")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransportError(tt.err))
		})
	}
}
