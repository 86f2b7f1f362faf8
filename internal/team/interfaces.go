package team

import (
	"context"

	"github.com/slacktail/slacktail/internal/domain/entity"
)

// EventType names the occurrences a transport reports.
type EventType string

const (
	// EventConnected means the streaming session is established.
	EventConnected EventType = "connected"
	// EventDisconnected means the session dropped.
	EventDisconnected EventType = "disconnected"
	// EventError means the session hit a connection-level failure.
	EventError EventType = "error"
	// EventMessage carries an inbound channel message.
	EventMessage EventType = "message"
)

// TransportEvent is one occurrence on a streaming session.
type TransportEvent struct {
	Type    EventType
	Err     error
	Message *RawMessage
}

// RawMessage is an inbound channel message before demultiplexing.
type RawMessage struct {
	ChannelID string
	UserID    string
	BotID     string
	SubType   string
	Text      string
	Timestamp string
}

// Transport is the streaming connection to one workspace.
//
// Open starts (or resumes) a session; calling it while a session is live
// must be a cheap no-op so reconnection logic can always drive through
// Open. Events returns a channel that stays stable across sessions and is
// closed by Close. Close is idempotent and safe before the first Open.
type Transport interface {
	Open(ctx context.Context) error
	Events() <-chan TransportEvent
	Close() error
}

// Directory resolves channel and user metadata for one workspace.
type Directory interface {
	ChannelInfo(ctx context.Context, channelID string) (ChannelInfo, error)
	UserInfo(ctx context.Context, userID string) (UserInfo, error)
}

// ChannelInfo describes one channel as the platform sees it.
type ChannelInfo struct {
	ID       string
	Name     string
	IsMember bool
}

// UserInfo describes one user profile.
type UserInfo struct {
	ID          string
	DisplayName string
	RealName    string
	Login       string
}

// Preferred returns the best human-readable name: display name, then real
// name, then login, then the raw ID.
func (u UserInfo) Preferred() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.RealName != "":
		return u.RealName
	case u.Login != "":
		return u.Login
	}
	return u.ID
}

// Sink receives demultiplexed messages.
type Sink func(msg entity.Message)

// MessageSink is the pipeline-facing contract the supervisor forwards
// messages into.
type MessageSink interface {
	ProcessMessage(ctx context.Context, msg entity.Message) error
}

// Logger defines the contract for logging within the team layer.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Recorder observes client activity for metrics. Implementations must be
// safe for concurrent use; a nil Recorder disables recording.
type Recorder interface {
	RecordMessage(ctx context.Context, team string)
	RecordDrop(ctx context.Context, team, reason string)
	RecordReconnect(ctx context.Context, team string)
	RecordSkippedChannel(ctx context.Context, team string, reason string)
	AddConnectedTeams(ctx context.Context, delta int64)
}
