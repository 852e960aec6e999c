package service

import "errors"

// Kind classifies a service failure so the API layer can pick an HTTP
// status without inspecting message strings.
type Kind int

// Failure kinds
const (
	KindValidation    Kind = iota // Missing/out-of-range/invalid-enum field
	KindNotFound                  // Unknown id
	KindAuthorization             // Role or ownership mismatch
	KindConflict                  // Operation illegal for current state
	KindUnexpected                // Storage/infra failure
)

// Error is the typed error returned by every service operation.
type Error struct {
	Kind    Kind   // Failure classification
	Message string // User-visible description of the violated precondition
	Err     error  // Underlying cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string { return e.Message }

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *Error) Unwrap() error { return e.Err }

// Validation builds a validation failure.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// NotFound builds an unknown-id failure.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// NotAuthorized builds a role/ownership failure.
func NotAuthorized(msg string) *Error { return &Error{Kind: KindAuthorization, Message: msg} }

// Conflict builds an illegal-state failure.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// Unexpected wraps a storage or infrastructure error.
func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: "Internal server error", Err: err}
}

// KindOf extracts the failure kind from err, defaulting to unexpected.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnexpected
}
