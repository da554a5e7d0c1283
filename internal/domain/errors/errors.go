// Package errors provides domain-specific errors for the mcpnotes application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common domain error conditions.
var (
	ErrNoteNotFound    = errors.New("note not found")
	ErrNoteIDRequired  = errors.New("note ID required")
	ErrTitleRequired   = errors.New("note title required")
	ErrTitleTooLong    = errors.New("note title too long")
	ErrBodyRequired    = errors.New("note body required")
	ErrStoreUnwritable = errors.New("note store unwritable")
)

// ErrorCode categorizes errors for handling and reporting.
type ErrorCode string

const (
	CodeValidation    ErrorCode = "VALIDATION"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeStorage       ErrorCode = "STORAGE"
	CodeInternal      ErrorCode = "INTERNAL"
	CodeConfiguration ErrorCode = "CONFIG"
)

// NotesError wraps errors with additional context for debugging and handling.
type NotesError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns a formatted error string including the code, message, and cause if present.
func (e *NotesError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for use with errors.Is and errors.As.
func (e *NotesError) Unwrap() error {
	return e.Cause
}

// NewError creates a new NotesError with the given code, message, and optional cause.
func NewError(code ErrorCode, message string, cause error) *NotesError {
	return &NotesError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error's context and returns the error.
// This allows for method chaining when adding multiple context values.
func WithContext(err *NotesError, key string, value interface{}) *NotesError {
	if err.Context == nil {
		err.Context = make(map[string]interface{})
	}
	err.Context[key] = value
	return err
}

// CodeOf returns the code of the first NotesError in err's chain, or ""
// when there is none.
func CodeOf(err error) ErrorCode {
	var ne *NotesError
	if errors.As(err, &ne) {
		return ne.Code
	}
	return ""
}

// MessageOf returns the message of the first NotesError in err's chain,
// falling back to err.Error().
func MessageOf(err error) string {
	var ne *NotesError
	if errors.As(err, &ne) {
		return ne.Message
	}
	return err.Error()
}
