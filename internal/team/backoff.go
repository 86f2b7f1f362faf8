package team

import (
	"math"
	"time"
)

// ReconnectPolicy controls scheduled reconnection after transport loss.
type ReconnectPolicy struct {
	InitialBackoff time.Duration // Delay before the first retry (default: 1s)
	MaxBackoff     time.Duration // Ceiling on the delay (default: 30s)
	MaxAttempts    int           // Attempts before the client gives up (default: 5)
}

// DefaultReconnectPolicy returns the default reconnection policy.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		MaxAttempts:    5,
	}
}

// Backoff calculates the delay before attempt number attempt (0-based).
// The delay doubles per attempt and is capped at MaxBackoff.
func (p ReconnectPolicy) Backoff(attempt int) time.Duration {
	backoff := float64(p.InitialBackoff) * math.Pow(2, float64(attempt))

	if backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}

	return time.Duration(backoff)
}
