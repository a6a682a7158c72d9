// Package errors provides structured error types for psdemiurge.
//
// Every failure that can be scoped to one document or one variant carries a
// machine-readable [Code], so the batch driver can decide whether to skip the
// variant, skip the document, or abort the run.
//
// # Error Codes
//
//   - INVALID_CONFIG: malformed or missing descriptor or tool config
//   - DUPLICATE_LAYER: a requested layer name matches more than one layer
//   - EMPTY_VARIANT: a variant resolves to zero layers
//   - MODE_MISMATCH: layers of one variant have different pixel formats
//   - MISSING_DOCUMENT: a descriptor has no matching document
//   - DECODE_FAILED: the layered document could not be decoded
//   - IO_ERROR, INVALID_PATH, INTERNAL_ERROR
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEmptyVariant, "variant %q matched no layers", name)
//	if errors.Is(err, errors.ErrCodeEmptyVariant) {
//	    // skip and warn
//	}
//
//	err := errors.Wrap(errors.ErrCodeDecode, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Configuration errors
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeDuplicateLayer Code = "DUPLICATE_LAYER"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Compositing errors
	ErrCodeEmptyVariant Code = "EMPTY_VARIANT"
	ErrCodeModeMismatch Code = "MODE_MISMATCH"

	// Document errors
	ErrCodeMissingDocument Code = "MISSING_DOCUMENT"
	ErrCodeDecode          Code = "DECODE_FAILED"

	// I/O and internal errors
	ErrCodeIO       Code = "IO_ERROR"
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
// Only the outermost *Error is consulted.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsConfigError reports whether err belongs to the configuration family
// (INVALID_CONFIG or DUPLICATE_LAYER).
func IsConfigError(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidConfig, ErrCodeDuplicateLayer:
		return true
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
