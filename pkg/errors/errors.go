// Package errors provides structured error types for tabula.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the API and the library
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - NOT_FOUND: Resource not found
//   - NETWORK_*: Network-related errors
//   - *_FAILURE / MALFORMED_* / UNDEFINED_*: data errors raised while converting
//   - INTERNAL_*: Unexpected internal errors
//
// The three data errors carry structured details through dedicated types
// ([RetrievalError], [MalformedDataError], [UndefinedXError]). All of them
// report their code through a Code method, so [Is] and [GetCode] work the
// same for *Error and for the detail types:
//
//	var mErr *errors.MalformedDataError
//	if stderrors.As(err, &mErr) {
//	    fmt.Println(mErr.Row, mErr.Column)
//	}
//	if errors.Is(err, errors.ErrCodeUndefinedXAxis) {
//	    // x was never resolved for some series
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidMimeType Code = "INVALID_MIME_TYPE"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Data errors
	ErrCodeRetrievalFailure     Code = "RETRIEVAL_FAILURE"
	ErrCodeMalformedTabularData Code = "MALFORMED_TABULAR_DATA"
	ErrCodeUndefinedXAxis       Code = "UNDEFINED_X_AXIS"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// coder is implemented by every error type of this package.
type coder interface {
	Code() Code
}

// Error is a structured error with a code and optional cause.
type Error struct {
	code    Code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.Message)
}

// Code returns the machine-readable error code.
func (e *Error) Code() Code { return e.code }

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// Only the outermost coded error in the chain is considered, so a wrapped
// error reports the code of the wrapper.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	var c coder
	if errors.As(err, &c) {
		return c.Code()
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

// RetrievalError reports that the data fetcher produced no body.
type RetrievalError struct {
	URL        string
	Status     int
	StatusText string
}

// Error implements the error interface.
func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s %d (%s)", e.URL, e.Status, e.StatusText)
}

// Code returns the error code for this error type.
func (e *RetrievalError) Code() Code {
	return ErrCodeRetrievalFailure
}

// MalformedDataError reports a missing cell while pivoting rows or columns.
// Row and Column are the positions in the input, header included.
type MalformedDataError struct {
	Row    int
	Column int
}

// Error implements the error interface.
func (e *MalformedDataError) Error() string {
	return fmt.Sprintf("source data is missing a component at (%d, %d)", e.Row, e.Column)
}

// Code returns the error code for this error type.
func (e *MalformedDataError) Code() Code {
	return ErrCodeMalformedTabularData
}

// UndefinedXError reports a series whose x-values could not be resolved.
type UndefinedXError struct {
	ID string
}

// Error implements the error interface.
func (e *UndefinedXError) Error() string {
	return fmt.Sprintf("x is not defined for id = %q", e.ID)
}

// Code returns the error code for this error type.
func (e *UndefinedXError) Code() Code {
	return ErrCodeUndefinedXAxis
}
