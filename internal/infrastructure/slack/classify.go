package slack

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/slack-go/slack"

	domainerrors "github.com/slacktail/slacktail/internal/domain/errors"
)

// categorizeError wraps Slack API errors as transient, permanent or auth
// domain errors. The platform error code is kept in the message so later
// classification can read it.
func categorizeError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Rate limiting - transient
	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: rate_limited, retry after %s", operation, rateErr.RetryAfter),
			err,
		)
	}

	// Network errors - transient
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: network error", operation),
			err,
		)
	}

	// HTTP status errors
	var statusErr slack.StatusCodeError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusUnauthorized:
			return domainerrors.NewAuthError(
				fmt.Sprintf("%s: http 401 unauthorized", operation),
				err,
			)
		case statusErr.Code == http.StatusForbidden:
			return domainerrors.NewPermanentError(
				fmt.Sprintf("%s: http 403 access_denied", operation),
				err,
			)
		case statusErr.Code == http.StatusTooManyRequests:
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: http 429 rate_limited", operation),
				err,
			)
		case statusErr.Code >= 500:
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: http %d server error", operation, statusErr.Code),
				err,
			)
		default:
			return domainerrors.NewPermanentError(
				fmt.Sprintf("%s: http %d", operation, statusErr.Code),
				err,
			)
		}
	}

	// Slack API errors carry a machine-readable code
	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		switch slackErr.Err {
		// Dead credentials - the owning team must be invalidated
		case "invalid_auth", "token_revoked", "account_inactive",
			"not_authed", "token_expired", "invalid_token":
			return domainerrors.NewAuthError(
				fmt.Sprintf("%s: %s", operation, slackErr.Err),
				err,
			)

		// Rate limiting - transient
		case "rate_limited", "ratelimited":
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: %s", operation, slackErr.Err),
				err,
			)

		// Server errors - transient
		case "internal_error", "fatal_error", "service_unavailable":
			return domainerrors.NewTransientError(
				fmt.Sprintf("%s: %s", operation, slackErr.Err),
				err,
			)

		// Everything else is permanent; the code stays in the message
		default:
			return domainerrors.NewPermanentError(
				fmt.Sprintf("%s: %s", operation, slackErr.Err),
				err,
			)
		}
	}

	// Context errors (transient)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domainerrors.NewTransientError(
			fmt.Sprintf("%s: context timeout", operation),
			err,
		)
	}

	// Default to permanent error
	return domainerrors.NewPermanentError(
		fmt.Sprintf("%s: %v", operation, err),
		err,
	)
}
