// Package apperrors defines the error taxonomy shared by the ledger core,
// the stores and the RPC layer.
package apperrors

import (
	stdErrors "errors"
	"fmt"
)

// Code classifies an error for callers.
type Code string

const (
	// CodeNotFound means a group, balance or referenced user is absent.
	CodeNotFound Code = "NOT_FOUND"
	// CodePermission means the requester may not perform the operation.
	CodePermission Code = "PERMISSION_DENIED"
	// CodeValidation means the input was rejected before any mutation.
	CodeValidation Code = "VALIDATION"
	// CodeConflict means transaction retries on a contended record were exhausted.
	CodeConflict Code = "CONFLICT"
)

// Error is a classified error. Details carries per-field validation messages.
type Error struct {
	code    Code
	message string
	details map[string]string
	cause   error
}

// New creates an error with the given code.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap creates an error with the given code around cause.
func Wrap(code Code, cause error, message string) *Error {
	return &Error{code: code, message: message, cause: cause}
}

// NotFound returns a CodeNotFound error.
func NotFound(format string, args ...any) *Error {
	return New(CodeNotFound, fmt.Sprintf(format, args...))
}

// Permission returns a CodePermission error.
func Permission(format string, args ...any) *Error {
	return New(CodePermission, fmt.Sprintf(format, args...))
}

// Validation returns a CodeValidation error.
func Validation(format string, args ...any) *Error {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

// Conflict returns a CodeConflict error wrapping the last retry failure.
func Conflict(cause error, format string, args ...any) *Error {
	return Wrap(CodeConflict, cause, fmt.Sprintf(format, args...))
}

// WithDetails attaches field-level details and returns the same error.
func (e *Error) WithDetails(details map[string]string) *Error {
	e.details = details
	return e
}

// Code returns the error classification.
func (e *Error) Code() Code {
	return e.code
}

// Message returns the message without the code prefix.
func (e *Error) Message() string {
	return e.message
}

// Details returns field-level details, if any.
func (e *Error) Details() map[string]string {
	return e.details
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// As extracts the first *Error in err's chain.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// CodeOf returns the code of err, or "" when err is not classified.
func CodeOf(err error) Code {
	if e := As(err); e != nil {
		return e.code
	}
	return ""
}

func IsNotFound(err error) bool   { return CodeOf(err) == CodeNotFound }
func IsPermission(err error) bool { return CodeOf(err) == CodePermission }
func IsValidation(err error) bool { return CodeOf(err) == CodeValidation }
func IsConflict(err error) bool   { return CodeOf(err) == CodeConflict }
