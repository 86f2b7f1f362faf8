// Package slack implements the platform-facing transport and directory on
// top of the Slack SDK: Socket Mode sessions translated into transport
// events, Web API lookups for channel and user metadata, and error
// categorization into the domain's transient/permanent/auth classes.
package slack

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	domainerrors "github.com/slacktail/slacktail/internal/domain/errors"
	"github.com/slacktail/slacktail/internal/team"
)

// ErrTransportClosed is returned when opening a transport after Close.
var ErrTransportClosed = errors.New("transport is closed")

// SocketTransport streams one workspace's events over Socket Mode. Each
// Open starts a fresh Socket Mode session; the outbound event channel
// stays stable across sessions and is closed by Close.
type SocketTransport struct {
	api    *slack.Client
	debug  bool
	logger Logger
	out    chan team.TransportEvent

	mu            sync.Mutex
	sessionCancel context.CancelFunc
	sessionDone   chan struct{}
	closed        bool
}

// NewSocketTransport creates a transport for one workspace. The optional
// apiURL overrides the Slack API endpoint for testing.
func NewSocketTransport(appToken, botToken string, debug bool, logger Logger, apiURL ...string) (*SocketTransport, error) {
	if appToken == "" {
		return nil, fmt.Errorf("app token is required")
	}
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	opts := []slack.Option{
		slack.OptionAppLevelToken(appToken),
		slack.OptionDebug(debug),
		slack.OptionLog(sdkLogAdapter{logger: logger}),
	}
	if len(apiURL) > 0 && apiURL[0] != "" {
		// Use custom API URL (for tests)
		opts = append(opts, slack.OptionAPIURL(apiURL[0]))
	}

	return &SocketTransport{
		api:    slack.New(botToken, opts...),
		debug:  debug,
		logger: logger,
		out:    make(chan team.TransportEvent, 64),
	}, nil
}

// API exposes the underlying Web API client so the directory can share
// the authenticated HTTP client.
func (t *SocketTransport) API() *slack.Client {
	return t.api
}

// Open verifies the credentials and starts a Socket Mode session. While a
// session is live Open is a cheap no-op, so reconnection logic can always
// drive through it.
func (t *SocketTransport) Open(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTransportClosed
	}
	if t.sessionDone != nil {
		select {
		case <-t.sessionDone:
			// Previous session ended; release it and start a new one.
			if t.sessionCancel != nil {
				t.sessionCancel()
				t.sessionCancel = nil
			}
		default:
			t.mu.Unlock()
			return nil
		}
	}
	t.mu.Unlock()

	// Auth test before dialing surfaces dead credentials synchronously.
	authTest, err := t.api.AuthTestContext(ctx)
	if err != nil {
		return categorizeError(err, "auth test")
	}
	t.logger.Debug("auth test passed",
		"workspace", authTest.Team,
		"team_id", authTest.TeamID,
		"user_id", authTest.UserID,
	)

	sm := socketmode.New(
		t.api,
		socketmode.OptionDebug(t.debug),
		socketmode.OptionLog(sdkLogAdapter{logger: t.logger}),
	)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrTransportClosed
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.sessionCancel = cancel
	t.sessionDone = done
	t.mu.Unlock()

	go t.session(sessionCtx, sm, done)
	return nil
}

// Events returns the stable outbound event channel.
func (t *SocketTransport) Events() <-chan team.TransportEvent {
	return t.out
}

// Close ends the current session and closes the event channel. Idempotent
// and safe before the first Open.
func (t *SocketTransport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	cancel := t.sessionCancel
	done := t.sessionDone
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	close(t.out)
	return nil
}

// session pumps one Socket Mode run: SDK events are translated onto the
// outbound channel until the run ends or the session context is
// cancelled. The session goroutine is the only writer, so Close can wait
// for done before closing the channel.
func (t *SocketTransport) session(ctx context.Context, sm *socketmode.Client, done chan struct{}) {
	defer close(done)

	runErr := make(chan error, 1)
	go func() {
		runErr <- sm.RunContext(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-runErr:
			if ctx.Err() != nil {
				return
			}
			if err == nil {
				err = errors.New("socket mode session ended")
			}
			t.deliver(ctx, team.TransportEvent{
				Type: team.EventError,
				Err:  categorizeError(err, "socket mode session"),
			})
			return

		case evt := <-sm.Events:
			t.handleEvent(ctx, sm, evt)
		}
	}
}

// handleEvent translates one SDK event into a transport event.
func (t *SocketTransport) handleEvent(ctx context.Context, sm *socketmode.Client, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting, socketmode.EventTypeHello:
		t.logger.Debug("socket mode event", "type", string(evt.Type))

	case socketmode.EventTypeConnected:
		t.logger.Debug("socket mode connected")
		t.deliver(ctx, team.TransportEvent{Type: team.EventConnected})

	case socketmode.EventTypeConnectionError:
		err, ok := evt.Data.(error)
		if !ok {
			err = fmt.Errorf("connection error: %v", evt.Data)
		}
		t.logger.Warn("socket mode connection error", "error", err)
		t.deliver(ctx, team.TransportEvent{Type: team.EventDisconnected, Err: err})

	case socketmode.EventTypeDisconnect:
		// Server-requested refresh; the SDK re-establishes the socket and
		// emits a connected event when done.
		t.logger.Debug("socket mode refresh requested")

	case socketmode.EventTypeInvalidAuth:
		t.deliver(ctx, team.TransportEvent{
			Type: team.EventError,
			Err:  domainerrors.NewAuthError("socket mode authentication rejected", nil),
		})

	case socketmode.EventTypeIncomingError:
		t.logger.Warn("socket mode incoming error", "error", fmt.Sprintf("%v", evt.Data))

	case socketmode.EventTypeEventsAPI:
		eventsAPI, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			t.logger.Error("unexpected events api payload", "type", fmt.Sprintf("%T", evt.Data))
			return
		}
		if evt.Request != nil && sm != nil {
			sm.Ack(*evt.Request)
		}
		t.handleEventsAPI(ctx, eventsAPI)

	case socketmode.EventTypeSlashCommand, socketmode.EventTypeInteractive:
		// Not a surface of this application; acknowledge so Slack does
		// not retry the delivery.
		if evt.Request != nil && sm != nil {
			sm.Ack(*evt.Request)
		}

	default:
		t.logger.Debug("unhandled socket mode event", "type", string(evt.Type))
	}
}

// handleEventsAPI extracts channel messages from an Events API envelope.
func (t *SocketTransport) handleEventsAPI(ctx context.Context, eventsAPI slackevents.EventsAPIEvent) {
	if eventsAPI.Type != slackevents.CallbackEvent {
		return
	}

	msgEvt, ok := eventsAPI.InnerEvent.Data.(*slackevents.MessageEvent)
	if !ok {
		t.logger.Debug("ignoring inner event", "type", eventsAPI.InnerEvent.Type)
		return
	}

	t.deliver(ctx, team.TransportEvent{
		Type: team.EventMessage,
		Message: &team.RawMessage{
			ChannelID: msgEvt.Channel,
			UserID:    msgEvt.User,
			BotID:     msgEvt.BotID,
			SubType:   msgEvt.SubType,
			Text:      msgEvt.Text,
			Timestamp: msgEvt.TimeStamp,
		},
	})
}

// deliver puts one event on the outbound channel without outliving the
// session.
func (t *SocketTransport) deliver(ctx context.Context, evt team.TransportEvent) {
	select {
	case t.out <- evt:
	case <-ctx.Done():
	}
}
