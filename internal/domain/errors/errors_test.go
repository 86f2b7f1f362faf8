package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAuthError_Patterns(t *testing.T) {
	patterns := []string{
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

	for _, pattern := range patterns {
		t.Run(pattern, func(t *testing.T) {
			err := stderrors.New("slack api: " + pattern)
			assert.True(t, IsAuthError(err))
		})
	}
}

func TestIsAuthError_CaseInsensitive(t *testing.T) {
	assert.True(t, IsAuthError(stderrors.New("Authentication Failed for team")))
	assert.True(t, IsAuthError(stderrors.New("INVALID_AUTH")))
}

func TestIsAuthError_HTTPStatus(t *testing.T) {
	assert.True(t, IsAuthError(stderrors.New("unexpected status 401")))
}

func TestIsAuthError_ExplicitType(t *testing.T) {
	err := NewAuthError("auth test failed", stderrors.New("boom"))
	assert.True(t, IsAuthError(err))

	wrapped := fmt.Errorf("connecting team acme: %w", err)
	assert.True(t, IsAuthError(wrapped))
}

func TestIsAuthError_Negative(t *testing.T) {
	assert.False(t, IsAuthError(nil))
	assert.False(t, IsAuthError(stderrors.New("connection reset by peer")))
	assert.False(t, IsAuthError(NewTransientError("rate limited", nil)))
}

func TestIsTransientError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient", NewTransientError("network blip", nil), true},
		{"wrapped transient", fmt.Errorf("op: %w", NewTransientError("blip", nil)), true},
		{"permanent", NewPermanentError("bad request", nil), false},
		{"auth", NewAuthError("token_revoked", nil), false},
		{"context canceled", context.Canceled, true},
		{"deadline exceeded", fmt.Errorf("lookup: %w", context.DeadlineExceeded), true},
		{"plain", stderrors.New("whatever"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransientError(tt.err))
		})
	}
}

func TestIsPermanentError(t *testing.T) {
	assert.True(t, IsPermanentError(NewPermanentError("channel gone", nil)))
	assert.True(t, IsPermanentError(NewAuthError("invalid_auth", nil)))
	assert.False(t, IsPermanentError(NewTransientError("timeout", nil)))
	assert.False(t, IsPermanentError(nil))
}

func TestErrorMessages(t *testing.T) {
	cause := stderrors.New("underlying")

	assert.Equal(t, "fetch failed: underlying", NewTransientError("fetch failed", cause).Error())
	assert.Equal(t, "fetch failed", NewTransientError("fetch failed", nil).Error())
	assert.Equal(t, cause, stderrors.Unwrap(NewPermanentError("x", cause)))
}
