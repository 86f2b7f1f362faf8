// Package errors defines the error classification used across the
// application. Errors are transient (retry may help), permanent (retry is
// pointless), or auth (the credential itself is dead and the owning team
// must be invalidated).
package errors

import (
	"context"
	"errors"
	"strings"
)

// TransientError wraps a failure that may clear on retry.
type TransientError struct {
	msg   string
	cause error
}

// NewTransientError creates a transient error with an underlying cause.
func NewTransientError(msg string, cause error) error {
	return &TransientError{msg: msg, cause: cause}
}

func (e *TransientError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *TransientError) Unwrap() error { return e.cause }

// PermanentError wraps a failure that no amount of retrying will fix.
type PermanentError struct {
	msg   string
	cause error
}

// NewPermanentError creates a permanent error with an underlying cause.
func NewPermanentError(msg string, cause error) error {
	return &PermanentError{msg: msg, cause: cause}
}

func (e *PermanentError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *PermanentError) Unwrap() error { return e.cause }

// AuthError wraps a credential failure. It is permanent and additionally
// poisons the credential pair: the owning team must stop reconnecting.
type AuthError struct {
	msg   string
	cause error
}

// NewAuthError creates an auth error with an underlying cause.
func NewAuthError(msg string, cause error) error {
	return &AuthError{msg: msg, cause: cause}
}

func (e *AuthError) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *AuthError) Unwrap() error { return e.cause }

// authPatterns are matched case-insensitively against error text. Any hit
// marks the error as an auth failure regardless of how it was wrapped.
var authPatterns = []string{
	"invalid_auth",
	"token_revoked",
	"account_inactive",
	"invalid_token",
	"not_authed",
	"token_expired",
	"unauthorized",
	"authentication failed",
	"invalid credentials",
}

// IsAuthError reports whether err indicates a dead credential. It checks
// the explicit AuthError type first, then scans the error text for known
// auth failure patterns and the 401 status marker.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range authPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return strings.Contains(msg, "401")
}

// IsTransientError reports whether err is worth retrying. Context
// cancellation and deadline errors count as transient so callers treat an
// interrupted operation like a recoverable one.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if IsAuthError(err) {
		return false
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// IsPermanentError reports whether err is classified permanent. Auth
// errors count as permanent.
func IsPermanentError(err error) bool {
	if err == nil {
		return false
	}
	if IsAuthError(err) {
		return true
	}

	var permanent *PermanentError
	return errors.As(err, &permanent)
}
