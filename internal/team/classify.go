package team

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/slacktail/slacktail/internal/domain/entity"
	domainerrors "github.com/slacktail/slacktail/internal/domain/errors"
)

// classifyLookup maps a channel lookup failure onto a skip reason. The
// platform error code travels in the error text, so the mapping works the
// same for SDK-wrapped errors and test doubles.
func classifyLookup(err error) entity.SkipReason {
	if err == nil {
		return entity.SkipUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return entity.SkipNetworkTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return entity.SkipNetworkTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "channel_not_found"),
		strings.Contains(msg, "not found"):
		return entity.SkipNotFound

	case strings.Contains(msg, "not_in_channel"),
		strings.Contains(msg, "is_archived"),
		strings.Contains(msg, "not a member"):
		return entity.SkipNotAMember

	case strings.Contains(msg, "access_denied"),
		strings.Contains(msg, "access denied"),
		strings.Contains(msg, "restricted_action"):
		return entity.SkipAccessDenied

	case strings.Contains(msg, "missing_scope"),
		strings.Contains(msg, "no_permission"),
		strings.Contains(msg, "permission"):
		return entity.SkipPermissionDenied

	case strings.Contains(msg, "rate_limited"),
		strings.Contains(msg, "ratelimited"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "429"):
		return entity.SkipRateLimited

	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"):
		return entity.SkipNetworkTimeout
	}

	if domainerrors.IsTransientError(err) || domainerrors.IsPermanentError(err) {
		// Classified API failure without a finer bucket.
		return entity.SkipAPIError
	}

	return entity.SkipUnknown
}
