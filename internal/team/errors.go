package team

import (
	"errors"
	"fmt"
)

var (
	// ErrClientClosed is returned when connecting a closed client.
	ErrClientClosed = errors.New("team client is closed")

	// ErrNilSink is returned when a nil message sink is supplied.
	ErrNilSink = errors.New("message sink must not be nil")

	// ErrAlreadyInitialized is returned on a second Initialize call.
	ErrAlreadyInitialized = errors.New("supervisor already initialized")

	// ErrNotInitialized is returned when connecting before Initialize.
	ErrNotInitialized = errors.New("supervisor not initialized")

	// ErrNoTeams is returned when initializing with no teams.
	ErrNoTeams = errors.New("no teams configured")

	// ErrNoTeamsConnected is returned when every team failed to connect.
	ErrNoTeamsConnected = errors.New("no teams connected")

	// ErrShuttingDown rejects operations after shutdown began.
	ErrShuttingDown = errors.New("supervisor is shutting down")
)

// NoValidChannelsError means channel subscription left a team with
// nothing to listen to. Retryable reports whether every exclusion could
// clear on its own, making a scheduled reconnect worthwhile.
type NoValidChannelsError struct {
	Team       string
	Configured int
	Retryable  bool
}

func (e *NoValidChannelsError) Error() string {
	return fmt.Sprintf("team %s: no valid channels out of %d configured", e.Team, e.Configured)
}
