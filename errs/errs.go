// Package errs defines the service error taxonomy. Callers match on stable
// codes rather than error text, and the API layer maps codes to responses
// without leaking provider detail.
package errs

import (
	"errors"
	"fmt"
	"time"
)

const (
	CodeSessionNotFound = "session_not_found"
	CodeInvalidState    = "invalid_session_state"
	CodeRateLimited     = "rate_limited"
	CodeTranscription   = "transcription_failed"
	CodeConfig          = "config_missing_key"
	CodeValidation      = "validation_failed"
	CodeInternal        = "internal_error"
)

// Error is a taxonomy member with a stable code.
type Error struct {
	Code      string
	Message   string
	Retryable bool
	// RetryAfter is a hint carried by rate-limit errors; zero otherwise.
	RetryAfter time.Duration

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a taxonomy error with no underlying cause.
func New(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a taxonomy code to an underlying error.
func Wrap(code string, cause error, message string) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// SessionNotFound reports an operation against an unknown session id.
func SessionNotFound(sessionID string) *Error {
	return New(CodeSessionNotFound, fmt.Sprintf("session not found: %s", sessionID))
}

// InvalidState reports an operation forbidden in the session's current state.
func InvalidState(current, op string) *Error {
	return New(CodeInvalidState, fmt.Sprintf("cannot %s in state %q", op, current))
}

// RateLimited reports a retryable rate-limit signal from an external adapter.
func RateLimited(service string, retryAfter time.Duration) *Error {
	return &Error{
		Code:       CodeRateLimited,
		Message:    fmt.Sprintf("rate limited by %s", service),
		Retryable:  true,
		RetryAfter: retryAfter,
	}
}

// Transcription reports a failed speech-to-text call. The caller has no
// fallback other than surfacing it.
func Transcription(cause error) *Error {
	return Wrap(CodeTranscription, cause, "transcription failed")
}

// MissingKey reports a missing required credential. Fatal at adapter
// construction time, never retried.
func MissingKey(name string) *Error {
	return New(CodeConfig, fmt.Sprintf("missing required credential: %s", name))
}

// Validation reports rejected caller input.
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Code extracts the taxonomy code from err, defaulting to internal_error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsRetryable reports whether err carries a bounded-retry signal.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
