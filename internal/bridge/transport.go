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
	"errors"
	"io"
	"strings"
	"syscall"
)

// transportErrorMarkers are message fragments that classify a call failure as
// transport-level. Transport failures are eligible for one reconnect-and-retry;
// application-level tool failures are not.
var transportErrorMarkers = []string{
	"transport",
	"connection",
	"closed",
	"broken pipe",
	"reset by peer",
	"eof",
}

// isTransportError reports whether err looks like a connection/pipe-level
// failure, as opposed to an application error returned by a healthy backend.
// This is a message-content heuristic; the transport library does not expose
// a stable error taxonomy.
func isTransportError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	// Bridge-classified errors are never transport failures: they describe
	// the shape of a response a live connection delivered.
	if IsBridgeError(err) {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transportErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}

	return false
}
