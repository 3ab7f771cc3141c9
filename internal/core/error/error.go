package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// ModelErrorMessage describes completion failures surfaced to the caller.
	ModelErrorMessage = "failed to generate response"
)

// Kind classifies a failure so callers can branch on it without string
// matching. Every external-call failure is converted to exactly one Kind at
// the boundary of the component that made the call.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindTimeout           Kind = "timeout"
	KindConnectionFailure Kind = "connection_failure"
	KindUpstreamError     Kind = "upstream_error"
	KindModelUnavailable  Kind = "model_unavailable"
	KindModelError        Kind = "model_error"
	KindEmptyInput        Kind = "empty_input"
	KindLoadError         Kind = "load_error"
	KindInternal          Kind = "internal"
)

// AppError wraps an underlying error with an HTTP status, a failure kind and
// a safe user-facing message.
type AppError struct {
	Err     error
	Kind    Kind
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, kind Kind, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Kind:    kind,
		Status:  status,
		Message: message,
	}
}

// NotFound marks an identifier unknown to the status system.
func NotFound(message string) *AppError {
	return New(nil, KindNotFound, http.StatusNotFound, message)
}

// Timeout marks a bounded outbound call that did not complete in time.
func Timeout(err error, message string) *AppError {
	return New(err, KindTimeout, http.StatusGatewayTimeout, message)
}

// ConnectionFailure marks an outbound call that never reached the remote.
func ConnectionFailure(err error, message string) *AppError {
	return New(err, KindConnectionFailure, http.StatusBadGateway, message)
}

// Upstream marks an unexpected remote status code or malformed body.
func Upstream(err error, message string) *AppError {
	return New(err, KindUpstreamError, http.StatusBadGateway, message)
}

// ModelUnavailable marks a completion request made without a configured model.
func ModelUnavailable() *AppError {
	return New(nil, KindModelUnavailable, http.StatusServiceUnavailable, "model is not configured")
}

// ModelError marks an empty or errored completion.
func ModelError(err error) *AppError {
	return New(err, KindModelError, http.StatusInternalServerError, ModelErrorMessage)
}

// EmptyInput marks a blank message, rejected before any processing.
func EmptyInput() *AppError {
	return New(nil, KindEmptyInput, http.StatusBadRequest, "message cannot be empty")
}

// LoadError marks a missing or malformed knowledge source.
func LoadError(err error) *AppError {
	return New(err, KindLoadError, http.StatusInternalServerError, "failed to load knowledge source")
}

// KindOf returns the Kind of err when it is (or wraps) an AppError,
// KindInternal otherwise.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
