// Package domainerrors provides code-carrying errors for domain and service
// layers. Stores return sentinel errors (pkg/platform/sentinel); services
// translate them into these coded errors; transport maps codes onto HTTP
// statuses. Handlers should never inspect error strings.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for callers and for transport mapping.
type Code string

const (
	CodeNotFound                    Code = "not_found"
	CodeInvalidTransition           Code = "invalid_transition"
	CodeRequirementsNotMet          Code = "requirements_not_met"
	CodeInvalidSubmissionTransition Code = "invalid_submission_transition"
	CodeInvalidRole                 Code = "invalid_role"
	CodeAlreadyLinked               Code = "already_linked"
	CodeVersionConflict             Code = "version_conflict"
	CodeConflict                    Code = "conflict"
	CodeBadRequest                  Code = "bad_request"
	CodeValidation                  Code = "validation"
	CodeInvariantViolation          Code = "invariant_violation"
	CodeUnauthorized                Code = "unauthorized"
	CodeForbidden                   Code = "forbidden"
	CodeTimeout                     Code = "timeout"
	CodeInternal                    Code = "internal_error"
)

// Error is the canonical domain error. Details carries structured payload for
// errors that need to report more than a message (e.g. the unmet requirement
// ids behind a requirements_not_met).
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates an underlying error with a domain code. The cause remains
// reachable through errors.Is/errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// Add attaches a structured detail to the error and returns it for chaining.
func (e *Error) Add(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Load retrieves a structured detail by key.
func Load[T any](err error, key string) (T, bool) {
	var zero T
	var de *Error
	if !errors.As(err, &de) || de.Details == nil {
		return zero, false
	}
	v, ok := de.Details[key].(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode used at call sites that branch on
// error classes.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in a domain layer.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
