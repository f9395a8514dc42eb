// Package errors provides structured error types for the repoforge application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the index API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes name the failure the repository engine cares about:
//   - SPEC_INVALID: a package spec directory is absent or malformed
//   - DUPLICATE_VERSION: an identity already exists in the persisted index
//   - TAG_ERROR: version-control tagging failed
//   - PIPELINE_STEP_FAILED: a release pipeline step exited non-zero
//   - MALFORMED_STATS_ROW: a statistics row has the wrong column shape
//   - COMPENSATION_FAILED: admission rollback could not complete
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSpecInvalid, "no package.toml in %s", dir)
//	if errors.Is(err, errors.ErrCodeSpecInvalid) {
//	    // Handle spec error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStore, origErr, "appending %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Admission and pipeline errors
	ErrCodeSpecInvalid        Code = "SPEC_INVALID"
	ErrCodeDuplicateVersion   Code = "DUPLICATE_VERSION"
	ErrCodeTagError           Code = "TAG_ERROR"
	ErrCodePipelineStepFailed Code = "PIPELINE_STEP_FAILED"
	ErrCodeCompensationFailed Code = "COMPENSATION_FAILED"

	// Statistics errors
	ErrCodeMalformedStatsRow Code = "MALFORMED_STATS_ROW"

	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidVersion Code = "INVALID_VERSION"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodePackageNotFound Code = "PACKAGE_NOT_FOUND"

	// Storage errors
	ErrCodeStore Code = "STORE_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
