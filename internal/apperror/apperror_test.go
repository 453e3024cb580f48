package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("favorite", "42"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("username", "username must be 3-20 characters"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("username", "alice"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid credentials"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Network wraps ErrNetwork",
			err:       Network("HTTP 500"),
			target:    ErrNetwork,
			wantMatch: true,
		},
		{
			name:      "wrapped twice still matches",
			err:       fmt.Errorf("service/auth: login: %w", Unauthorized("account disabled")),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("user", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Network does NOT match ErrUnauthorized",
			err:       Network("connection refused"),
			target:    ErrUnauthorized,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("favorite", "42"),
			wantMessage: "favorite not found with id 42",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("email", "invalid email address"),
			wantMessage: "invalid email address",
		},
		{
			name:        "Conflict names the field and value",
			err:         Conflict("email", "alice@x.com"),
			wantMessage: `email "alice@x.com" is already taken`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("user", "abc123")
	if unwrapped := err.Unwrap(); unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestFieldIsSet(t *testing.T) {
	if err := ValidationFailed("email", "invalid email format"); err.Field != "email" {
		t.Errorf("ValidationFailed Field = %q, want %q", err.Field, "email")
	}
	if err := Conflict("username", "bob"); err.Field != "username" {
		t.Errorf("Conflict Field = %q, want %q", err.Field, "username")
	}
}

func TestMessage(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Unauthorized("account disabled"))
	if got := Message(wrapped); got != "account disabled" {
		t.Errorf("Message(wrapped AppError) = %q, want %q", got, "account disabled")
	}

	plain := errors.New("disk full")
	if got := Message(plain); got != "disk full" {
		t.Errorf("Message(plain) = %q, want %q", got, "disk full")
	}
}
