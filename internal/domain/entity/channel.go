package entity

// SkipReason classifies why a configured channel was excluded from a
// team's subscription.
type SkipReason string

const (
	// SkipInvalidFormat means the configured ID does not look like a
	// channel ID at all.
	SkipInvalidFormat SkipReason = "invalid-format"

	// SkipNotFound means the platform reported no such channel.
	SkipNotFound SkipReason = "not-found"

	// SkipNotAMember means the bot is not a member of the channel.
	SkipNotAMember SkipReason = "not-a-member"

	// SkipAccessDenied means the platform refused access to the channel.
	SkipAccessDenied SkipReason = "access-denied"

	// SkipRateLimited means the lookup was rejected by rate limiting.
	SkipRateLimited SkipReason = "rate-limited"

	// SkipNetworkTimeout means the lookup timed out on the network.
	SkipNetworkTimeout SkipReason = "network-timeout"

	// SkipPermissionDenied means the credential lacks a required scope.
	SkipPermissionDenied SkipReason = "permission-denied"

	// SkipAPIError means the platform returned some other API error.
	SkipAPIError SkipReason = "api-error"

	// SkipUnknown covers everything the classifier cannot place.
	SkipUnknown SkipReason = "unknown"
)

// Retryable reports whether the underlying condition could clear on its
// own, making a later subscription attempt worthwhile.
func (r SkipReason) Retryable() bool {
	switch r {
	case SkipRateLimited, SkipNetworkTimeout, SkipAPIError:
		return true
	default:
		return false
	}
}

// SkippedChannel records one channel excluded during subscription.
type SkippedChannel struct {
	// ID is the configured channel identifier as given.
	ID string

	// Reason classifies the exclusion.
	Reason SkipReason

	// Detail carries the underlying error text, if any.
	Detail string
}
