package team

// Status is a client's position in the connection lifecycle.
type Status string

const (
	// StatusIdle is the initial state before the first Connect.
	StatusIdle Status = "idle"

	// StatusConnecting covers transport open and channel subscription.
	StatusConnecting Status = "connecting"

	// StatusConnected means events are flowing.
	StatusConnected Status = "connected"

	// StatusDisconnected means the session dropped; a reconnect may be
	// pending.
	StatusDisconnected Status = "disconnected"

	// StatusInvalidated means the credential pair is dead. Terminal.
	StatusInvalidated Status = "invalidated"

	// StatusClosed means the client was deliberately shut down. Terminal.
	StatusClosed Status = "closed"
)

// Terminal reports whether the state admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusInvalidated || s == StatusClosed
}
