// Package errors provides structured error types for fabricpdf.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the HTTP API and the renderer
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages that never leak internal causes
//   - Error wrapping with context preservation
//
// # Error Codes
//
// The conversion pipeline distinguishes four failure kinds:
//   - FETCH_ERROR: a remote image could not be retrieved
//   - RENDER_ERROR: a scene object has malformed attributes
//   - STORE_ERROR: the finished artifact could not be uploaded
//   - UNRECOGNIZED_OBJECT_TYPE: an object type the renderer does not know
//     (recovered locally, never returned from a conversion)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeRender, "object %d: missing radius", i)
//	if errors.Is(err, errors.ErrCodeRender) {
//	    // Handle malformed scene
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFetch, origErr, "fetch %s", url)
//
// [Is] and [GetCode] walk the full error tree, including trees built with
// the standard library's errors.Join.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Conversion errors
	ErrCodeFetch          Code = "FETCH_ERROR"
	ErrCodeRender         Code = "RENDER_ERROR"
	ErrCodeStore          Code = "STORE_ERROR"
	ErrCodeUnrecognized   Code = "UNRECOGNIZED_OBJECT_TYPE"
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeNotFound       Code = "NOT_FOUND"
	ErrCodeUnauthorized   Code = "UNAUTHORIZED"
	ErrCodeInternal       Code = "INTERNAL_ERROR"
	ErrCodeRequestTooLong Code = "REQUEST_TOO_LARGE"
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
// It unwraps the error chain (and joined errors) looking for an *Error
// with a matching code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) && e.Code == code {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if Is(inner, code) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return Is(u.Unwrap(), code)
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
// For *Error types, returns the message without the code prefix or cause.
// For other errors, returns a generic message so internals are not leaked.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Join aggregates errs like the standard library's errors.Join.
// [Is] and [GetCode] see through the result.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
