// Package apperr contains the error kinds services return to the API layer
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	ValidationError    Kind = "ValidationError"
	ConflictError      Kind = "ConflictError"
	AuthError          Kind = "AuthError"
	AuthRequired       Kind = "AuthRequired"
	InvalidToken       Kind = "InvalidToken"
	UserNotFound       Kind = "UserNotFound"
	NotFoundError      Kind = "NotFoundError"
	UploadError        Kind = "UploadError"
	RemoteServiceError Kind = "RemoteServiceError"
	InternalError      Kind = "InternalError"
	RateLimited        Kind = "RateLimited"
)

// Status maps the kind to the HTTP status code it's reported with
func (k Kind) Status() int {
	switch k {
	case ValidationError, ConflictError:
		return http.StatusBadRequest
	case AuthError, AuthRequired, InvalidToken, UserNotFound:
		return http.StatusUnauthorized
	case NotFoundError:
		return http.StatusNotFound
	case RateLimited:
		return http.StatusTooManyRequests
	}

	return http.StatusInternalServerError
}

// Error is a failure with a kind and a message that is safe to show to
// clients. Err keeps the underlying cause for logging.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Internal wraps an unexpected failure. The message shown to clients is
// always the generic one.
func Internal(err error) *Error {
	return Wrap(InternalError, "Internal server error", err)
}

// As returns err as *Error. Errors without a kind are treated as internal.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return Internal(err)
}

// KindOf returns the kind of err or an empty string if err is nil
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	return As(err).Kind
}
