// Package auth implements the client-side session and identity core for Luna:
// typed error kinds, opaque session tokens, the IdentityBackend capability
// interface with in-process and HTTP implementations, and the Service that
// owns the persisted session record.
package auth

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or missing input. Field names the
// offending input and Message states the first unmet rule; callers show it
// inline next to the field, never as a fatal failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError reports an attempt to register an email that already has an
// account.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// AuthError reports bad credentials, a missing or expired session, or a
// missing token.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// NetworkError reports a transport failure. Message is user-facing guidance
// (check connectivity / service availability); the raw cause is wrapped.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err is (or wraps) an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}
