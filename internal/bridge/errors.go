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
)

// ErrorCode represents a category of bridge error.
type ErrorCode string

const (
	// ErrorCodeNoRoute indicates no backend is registered for a tool name.
	ErrorCodeNoRoute ErrorCode = "NO_ROUTE"
	// ErrorCodeBackendMissing indicates a routed backend is absent from the registry.
	ErrorCodeBackendMissing ErrorCode = "BACKEND_MISSING"
	// ErrorCodeNotConnected indicates a backend has no live connection.
	ErrorCodeNotConnected ErrorCode = "NOT_CONNECTED"
	// ErrorCodeConnectFailed indicates a connect attempt failed.
	ErrorCodeConnectFailed ErrorCode = "CONNECT_FAILED"
	// ErrorCodeCallFailed indicates a tool call failed after the retry budget.
	ErrorCodeCallFailed ErrorCode = "CALL_FAILED"
	// ErrorCodeMalformedResult indicates a result could not be reduced to the
	// canonical content/isError shape.
	ErrorCodeMalformedResult ErrorCode = "MALFORMED_RESULT"
	// ErrorCodeDeferredResult indicates a backend answered with an
	// asynchronous task-style result, which the bridge does not support.
	ErrorCodeDeferredResult ErrorCode = "DEFERRED_RESULT"
)

// BridgeError is a categorized error from the bridge layer.
type BridgeError struct {
	// Code is the error category.
	Code ErrorCode
	// Message is the primary error message.
	Message string
	// Detail provides additional context.
	Detail string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *BridgeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *BridgeError) Unwrap() error {
	return e.Cause
}

// WithDetail adds detail to the error.
func (e *BridgeError) WithDetail(detail string) *BridgeError {
	e.Detail = detail
	return e
}

// WithCause adds an underlying cause to the error.
func (e *BridgeError) WithCause(cause error) *BridgeError {
	e.Cause = cause
	return e
}

// NewBridgeError creates a new BridgeError.
func NewBridgeError(code ErrorCode, message string) *BridgeError {
	return &BridgeError{
		Code:    code,
		Message: message,
	}
}

// ErrNoRoute creates an error for when no backend is registered for a tool.
func ErrNoRoute(toolName string) *BridgeError {
	return NewBridgeError(ErrorCodeNoRoute,
		fmt.Sprintf("no backend registered for tool '%s'", toolName))
}

// ErrBackendMissing creates an error for when a routing entry references a
// backend that is not in the registry. This indicates a registration bug.
func ErrBackendMissing(backendID string) *BridgeError {
	return NewBridgeError(ErrorCodeBackendMissing,
		fmt.Sprintf("backend '%s' referenced by routing table but not registered", backendID))
}

// ErrNotConnected creates an error for when a backend has no live connection
// and reconnecting also failed.
func ErrNotConnected(backendID string, cause error) *BridgeError {
	e := NewBridgeError(ErrorCodeNotConnected,
		fmt.Sprintf("backend '%s' is not connected", backendID))
	if cause != nil {
		e = e.WithDetail(cause.Error()).WithCause(cause)
	}
	return e
}

// ErrCallFailed creates the final error for a call that failed again after
// one reconnect-and-retry.
func ErrCallFailed(backendID, toolName string, cause error) *BridgeError {
	return NewBridgeError(ErrorCodeCallFailed,
		fmt.Sprintf("call to tool '%s' on backend '%s' failed after reconnect retry", toolName, backendID)).
		WithDetail(cause.Error()).
		WithCause(cause)
}

// ErrMalformedResult creates an error for a result that cannot be reduced to
// the canonical shape.
func ErrMalformedResult(backendID, toolName, detail string) *BridgeError {
	return NewBridgeError(ErrorCodeMalformedResult,
		fmt.Sprintf("tool '%s' on backend '%s' returned a malformed result", toolName, backendID)).
		WithDetail(detail)
}

// ErrDeferredResult creates an error for an asynchronous task-style result.
func ErrDeferredResult(backendID, toolName string) *BridgeError {
	return NewBridgeError(ErrorCodeDeferredResult,
		fmt.Sprintf("tool '%s' on backend '%s' returned a deferred task result, which is not supported", toolName, backendID))
}

// IsBridgeError checks if an error is a BridgeError.
func IsBridgeError(err error) bool {
	_, ok := err.(*BridgeError)
	return ok
}

// GetBridgeError extracts a BridgeError from an error.
func GetBridgeError(err error) *BridgeError {
	if be, ok := err.(*BridgeError); ok {
		return be
	}
	return nil
}
