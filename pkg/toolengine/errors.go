package toolengine

import (
	"errors"
	"fmt"
	"time"
)

// Error codes for specific failure types.
const (
	ErrCodeDuplicateTool    = "DUPLICATE_TOOL"
	ErrCodeNotFound         = "TOOL_NOT_FOUND"
	ErrCodeInvalidArguments = "INVALID_ARGUMENTS"
	ErrCodeConfiguration    = "CONFIGURATION_ERROR"
	ErrCodeTimeout          = "EXECUTION_TIMEOUT"
	ErrCodeExecutionFailed  = "EXECUTION_FAILED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// Violation describes a single field-level schema violation.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the engine's error type. Every failure that crosses the
// engine boundary is one of these; raw handler errors are always wrapped.
type Error struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Attempts   int         `json:"attempts,omitempty"`
	Violations []Violation `json:"violations,omitempty"`
	Cause      error       `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, allowing errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewDuplicateToolError reports a registration attempt under a taken name.
func NewDuplicateToolError(name string) *Error {
	return &Error{
		Code:    ErrCodeDuplicateTool,
		Message: fmt.Sprintf("tool '%s' is already registered", name),
	}
}

// NewNotFoundError reports a lookup miss.
func NewNotFoundError(name string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("tool '%s' not found", name),
	}
}

// NewValidationError reports malformed caller input with per-field detail.
func NewValidationError(tool string, violations []Violation) *Error {
	return &Error{
		Code:       ErrCodeInvalidArguments,
		Message:    fmt.Sprintf("invalid arguments for tool '%s'", tool),
		Violations: violations,
	}
}

// NewConfigurationError reports an invalid descriptor at registration time.
func NewConfigurationError(message string, cause error) *Error {
	return &Error{
		Code:    ErrCodeConfiguration,
		Message: message,
		Cause:   cause,
	}
}

// NewTimeoutError reports a single attempt exceeding its deadline.
func NewTimeoutError(tool string, timeout time.Duration) *Error {
	return &Error{
		Code:    ErrCodeTimeout,
		Message: fmt.Sprintf("tool '%s' timed out after %v", tool, timeout),
	}
}

// NewExecutionError reports a final failure after retries were exhausted.
func NewExecutionError(tool string, attempts int, cause error) *Error {
	return &Error{
		Code:     ErrCodeExecutionFailed,
		Message:  fmt.Sprintf("tool '%s' failed after %d attempt(s)", tool, attempts),
		Attempts: attempts,
		Cause:    cause,
	}
}

// NewInternalError reports an unexpected fault in the engine itself.
func NewInternalError(message string, cause error) *Error {
	return &Error{
		Code:    ErrCodeInternal,
		Message: message,
		Cause:   cause,
	}
}

// AsEngineError extracts an *Error from an error chain, wrapping anything
// else as INTERNAL_ERROR so no unclassified error leaves the engine.
func AsEngineError(err error) *Error {
	if err == nil {
		return nil
	}
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr
	}
	return NewInternalError("unexpected engine error", err)
}
