// SPDX-License-Identifier: Apache-2.0
// Package errors provides typed error handling with rich context for Emperor.
package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode classifies Emperor errors for monitoring and recovery.
type ErrorCode string

const (
	// CodeInternal indicates an internal system error.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeInvalidInput indicates the input was invalid.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeToolFailure indicates a tool execution failed.
	CodeToolFailure ErrorCode = "TOOL_FAILURE"

	// CodePermissionDenied indicates a tool call was blocked by policy.
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeNotFound indicates a resource was not found.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeMemoryError indicates a memory system error.
	CodeMemoryError ErrorCode = "MEMORY_ERROR"

	// CodeLLMError indicates an LLM provider error.
	CodeLLMError ErrorCode = "LLM_ERROR"
)

// EmperorError is a typed error with rich context for observability.
// It implements the error interface and can be unwrapped with errors.As().
type EmperorError struct {
	Code        ErrorCode
	Message     string
	Err         error
	Context     map[string]interface{}
	Attributes  map[string]string
	Recoverable bool
	StatusCode  int // For HTTP responses
}

// Error implements the error interface.
func (e *EmperorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap for error chain traversal.
func (e *EmperorError) Unwrap() error {
	return e.Err
}

// MarshalJSON implements json.Marshaler for structured logging.
func (e *EmperorError) MarshalJSON() ([]byte, error) {
	type Alias EmperorError
	return json.Marshal(&struct {
		Message     string `json:"message"`
		Code        string `json:"code"`
		Err         string `json:"error,omitempty"`
		Recoverable bool   `json:"recoverable"`
		*Alias
	}{
		Message:     e.Error(),
		Code:        string(e.Code),
		Err:         fmt.Sprintf("%v", e.Err),
		Recoverable: e.Recoverable,
		Alias:       (*Alias)(e),
	})
}

// New creates a new EmperorError with the given code, message, and cause.
func New(code ErrorCode, msg string, cause error) *EmperorError {
	return &EmperorError{
		Code:       code,
		Message:    msg,
		Err:        cause,
		Context:    make(map[string]interface{}),
		Attributes: make(map[string]string),
		StatusCode: codeToStatusCode(code),
	}
}

// WithContext adds a key-value pair to the error context.
// Returns the error for method chaining.
func (e *EmperorError) WithContext(key string, value interface{}) *EmperorError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithAttribute adds a string attribute for OTEL traces.
// Returns the error for method chaining.
func (e *EmperorError) WithAttribute(key, value string) *EmperorError {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// WithRecoverable sets whether the error can be recovered from.
// Returns the error for method chaining.
func (e *EmperorError) WithRecoverable(recoverable bool) *EmperorError {
	e.Recoverable = recoverable
	return e
}

// AsEmperorError attempts to convert an error to an EmperorError.
// Returns the error as EmperorError if it is one, or wraps it otherwise.
func AsEmperorError(err error) *EmperorError {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EmperorError); ok {
		return ee
	}
	return New(CodeInternal, "wrapped error", err)
}

// IsCode reports whether err is an EmperorError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	if ee, ok := err.(*EmperorError); ok {
		return ee.Code == code
	}
	return false
}

// RecoverableString returns "true" or "false" as a string for observability.
func (e *EmperorError) RecoverableString() string {
	if e.Recoverable {
		return "true"
	}
	return "false"
}

// codeToStatusCode maps error codes to HTTP status codes.
func codeToStatusCode(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return 404
	case CodePermissionDenied:
		return 403
	case CodeInvalidInput:
		return 400
	case CodeTimeout:
		return 408
	default:
		return 500
	}
}
