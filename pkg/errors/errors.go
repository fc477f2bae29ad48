// Package errors provides structured error types for ngv.
//
// Every failure that crosses a package boundary carries a machine-readable
// [Code] so the CLI and the HTTP API can decide how to report it:
//
//   - INVALID_*: configuration or input validation failures, reported before
//     a placement run starts
//   - EXHAUSTED: a cell could not be placed within the retry cap; the
//     density/geometry combination of the region is infeasible
//   - NUMERICAL_DOMAIN: a potential was evaluated outside its domain
//   - CAPACITY: a sphere pattern was filled past its capacity (a caller bug)
//   - NOT_FOUND, NETWORK_ERROR, INTERNAL_ERROR: IO and cache plumbing
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidConfig, "unknown potential %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidConfig) {
//	    // report and stop before placing anything
//	}
//
//	err := errors.Wrap(errors.ErrCodeInvalidInput, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Placement errors
	ErrCodeExhausted       Code = "EXHAUSTED"
	ErrCodeNumericalDomain Code = "NUMERICAL_DOMAIN"
	ErrCodeCapacity        Code = "CAPACITY"

	// Resource and transport errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeNetwork  Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
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

// IsFatal reports whether err aborts a placement run rather than describing
// bad input that the caller could fix and resubmit.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case ErrCodeExhausted, ErrCodeNumericalDomain, ErrCodeCapacity, ErrCodeInternal:
		return true
	}
	return false
}
