// Package apperror defines the domain error taxonomy shared by every layer.
//
// Each error kind is a sentinel (ErrNotFound, ErrValidation, ...) wrapped in
// an *AppError that carries the human-readable message. Callers test the kind
// with errors.Is and read the message with errors.As; the HTTP layer maps the
// kind to a status code and the CLI prints the message.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNetwork      = errors.New("network")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a uniqueness violation on field (e.g. "username").
func Conflict(field, value string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %q is already taken", field, value),
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized covers bad credentials, a disabled account, a missing session
// and an expired remote token. HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Network reports a failed call to the remote exercise API: transport
// failure or a non-2xx status. HTTP handlers map this to 502.
func Network(message string) *AppError {
	return &AppError{
		Err:     ErrNetwork,
		Message: message,
	}
}

// Message returns the user-facing message of err: the AppError message when
// one is in the chain, err.Error() otherwise.
func Message(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
