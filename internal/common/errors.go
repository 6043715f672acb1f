// Package common defines shared constants and errors used across the client
// and server layers of profilekeeper. Sentinel errors are matched with
// errors.Is, typed errors with errors.As.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrNotAuthenticated is returned by operations that need a current identity.
	ErrNotAuthenticated = errors.New("user not authenticated")

	// ErrNoProfile is returned when a local mutation needs a loaded profile.
	ErrNoProfile = errors.New("profile not loaded")

	// Validation errors.
	ErrorValidation    = errors.New("validation error")
	ErrInvalidPath     = errors.New("invalid document path")
	ErrInvalidDocument = errors.New("invalid document")

	// Auth errors (invalid or malformed credential token).
	ErrInvalidToken = errors.New("invalid token")
)

// AuthError wraps an identity-provider failure. Reason carries the provider
// message verbatim so the UI can show it next to the triggering action.
type AuthError struct {
	Reason string
	Err    error
}

// NewAuthError wraps err, keeping its message as the reason.
func NewAuthError(err error) *AuthError {
	return &AuthError{Reason: err.Error(), Err: err}
}

func (e *AuthError) Error() string { return e.Reason }
func (e *AuthError) Unwrap() error { return e.Err }

// ReadError is a document-store read failure that survived the retry policy.
type ReadError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s failed after %d attempt(s): %v", e.Path, e.Attempts, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError is a document-store write failure that survived the retry policy.
type WriteError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s failed after %d attempt(s): %v", e.Path, e.Attempts, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// AmbiguousAbsenceError reports a profile read where one document was
// confirmed missing while the other could not be read, so "no profile" and
// "read failed" cannot be told apart.
type AmbiguousAbsenceError struct {
	IdentityID  string
	MissingPath string
	Err         error
}

func (e *AmbiguousAbsenceError) Error() string {
	return fmt.Sprintf("profile %s: %s missing and companion read failed: %v", e.IdentityID, e.MissingPath, e.Err)
}

func (e *AmbiguousAbsenceError) Unwrap() error { return e.Err }
