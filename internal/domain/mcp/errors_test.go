package mcp

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors_AreDistinct(t *testing.T) {
	allErrors := []error{
		ErrOperationNotFound,
		ErrDuplicateOperation,
		ErrInvalidOperation,
		ErrInvalidRequest,
		ErrServerClosed,
		ErrServerNotRunning,
		ErrInitializeFailed,
		ErrInvalidResponse,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestErrors_CanBeWrapped(t *testing.T) {
	tests := []struct {
		name   string
		base   error
		wrap   string
		target error
	}{
		{"operation not found", ErrOperationNotFound, "create_nota", ErrOperationNotFound},
		{"duplicate operation", ErrDuplicateOperation, "list_notes", ErrDuplicateOperation},
		{"invalid operation", ErrInvalidOperation, "handler is required", ErrInvalidOperation},
		{"invalid request", ErrInvalidRequest, "bad json", ErrInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("%s: %w", tt.wrap, tt.base)

			if !errors.Is(wrapped, tt.target) {
				t.Errorf("wrapped error should match target: got %v, want %v", wrapped, tt.target)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "title", Reason: "missing"}

	if got, want := err.Error(), `invalid argument "title": missing`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var target *ValidationError
	if !errors.As(fmt.Errorf("wrap: %w", err), &target) {
		t.Fatal("errors.As should find wrapped ValidationError")
	}
	if target.Field != "title" {
		t.Errorf("Field = %q, want %q", target.Field, "title")
	}
}
