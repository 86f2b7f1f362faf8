// Package team manages the per-workspace connection lifecycle and the
// supervisor that owns every connected workspace.
package team

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slacktail/slacktail/internal/domain/entity"
	domainerrors "github.com/slacktail/slacktail/internal/domain/errors"
)

// channelIDShape is the accepted channel identifier form.
var channelIDShape = regexp.MustCompile(`^C[A-Z0-9]{10}$`)

// Config describes one team a client connects to.
type Config struct {
	// Name is the operator-chosen team label used in rendered output.
	Name string

	// AppToken is the app-level token for the streaming connection.
	AppToken string

	// BotToken is the bot credential for API lookups.
	BotToken string

	// Channels are the channel IDs to subscribe, in configured order.
	Channels []string
}

// Client drives the connection state machine for one team: transport
// sessions, channel subscription, event demultiplexing, reconnection with
// exponential backoff, and irreversible invalidation on credential
// failures.
type Client struct {
	cfg       Config
	transport Transport
	directory Directory
	policy    ReconnectPolicy
	logger    Logger

	mu             sync.Mutex
	status         Status
	sink           Sink
	onError        func(error)
	recorder       Recorder
	attempts       int
	sessionID      string
	kept           []string
	keptSet        map[string]struct{}
	channelNames   map[string]string
	skipped        []entity.SkippedChannel
	reconnectTimer *time.Timer
	runCtx         context.Context
	cancelRun      context.CancelFunc
	pumpStarted    bool

	wg sync.WaitGroup
}

// NewClient creates a client in the idle state. The sink must be set
// before Connect for messages to go anywhere.
func NewClient(cfg Config, transport Transport, directory Directory, policy ReconnectPolicy, logger Logger) *Client {
	return &Client{
		cfg:       cfg,
		transport: transport,
		directory: directory,
		policy:    policy,
		logger:    logger,
		status:    StatusIdle,
	}
}

// SetSink installs the destination for demultiplexed messages.
func (c *Client) SetSink(sink Sink) error {
	if sink == nil {
		return ErrNilSink
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sink = sink
	return nil
}

// SetOnError installs a callback for terminal failures: invalidation,
// reconnect exhaustion, and unrecoverable subscription results. The
// callback runs on its own goroutine so it may call back into the client.
func (c *Client) SetOnError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// SetRecorder installs the metrics recorder. A nil recorder disables
// recording.
func (c *Client) SetRecorder(r Recorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recorder = r
}

// Connect opens the transport, subscribes the configured channels and
// moves the client to connected. Calling it while connecting, connected
// or invalidated is a no-op; a closed client reports ErrClientClosed.
// Connection failures are classified: credential failures invalidate the
// client for good, everything else parks it disconnected and, when
// retryable, schedules a reconnect.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.status {
	case StatusConnecting, StatusConnected, StatusInvalidated:
		c.mu.Unlock()
		return nil
	case StatusClosed:
		c.mu.Unlock()
		return ErrClientClosed
	}

	c.status = StatusConnecting
	c.sessionID = uuid.New().String()
	if c.runCtx == nil {
		c.runCtx, c.cancelRun = context.WithCancel(ctx)
	}
	runCtx := c.runCtx
	sessionID := c.sessionID
	c.mu.Unlock()

	c.logger.Info("connecting team",
		"team", c.cfg.Name,
		"session_id", sessionID,
		"channels", len(c.cfg.Channels),
	)

	if err := c.transport.Open(runCtx); err != nil {
		return c.handleConnectFailure(fmt.Errorf("opening transport: %w", err))
	}

	c.startPump()

	if err := c.subscribe(runCtx); err != nil {
		return c.handleConnectFailure(err)
	}

	c.mu.Lock()
	if c.status != StatusConnecting {
		// Disconnect or invalidation won the race mid-handshake.
		status := c.status
		c.mu.Unlock()
		if status == StatusClosed {
			return ErrClientClosed
		}
		return nil
	}
	c.status = StatusConnected
	c.attempts = 0
	subscribed := len(c.kept)
	skipped := len(c.skipped)
	c.mu.Unlock()

	c.logger.Info("team connected",
		"team", c.cfg.Name,
		"session_id", sessionID,
		"subscribed", subscribed,
		"skipped", skipped,
	)
	return nil
}

// handleConnectFailure classifies a connect-time error and settles the
// client into the matching state. The original error is returned so
// callers can count the failure.
func (c *Client) handleConnectFailure(err error) error {
	if domainerrors.IsAuthError(err) {
		c.invalidate(err)
		return err
	}

	c.mu.Lock()
	if c.status == StatusConnecting {
		c.status = StatusDisconnected
	}
	c.mu.Unlock()

	c.logger.Warn("connect failed", "team", c.cfg.Name, "error", err)

	var noChannels *NoValidChannelsError
	if errors.As(err, &noChannels) && !noChannels.Retryable {
		// Nothing to listen to and retrying will not change that. Park
		// the client and release the session.
		if cerr := c.transport.Close(); cerr != nil {
			c.logger.Warn("closing transport", "team", c.cfg.Name, "error", cerr)
		}
		c.reportError(err)
		return err
	}

	c.scheduleReconnect()
	return err
}

// subscribe walks the configured channel list in order, validating and
// resolving each ID. Channels that cannot be subscribed are recorded with
// a reason instead of failing the whole team; credential failures abort
// immediately.
func (c *Client) subscribe(ctx context.Context) error {
	kept := make([]string, 0, len(c.cfg.Channels))
	keptSet := make(map[string]struct{}, len(c.cfg.Channels))
	names := make(map[string]string, len(c.cfg.Channels))
	skipped := make([]entity.SkippedChannel, 0)

	for _, id := range c.cfg.Channels {
		if !channelIDShape.MatchString(id) {
			skipped = append(skipped, entity.SkippedChannel{
				ID:     id,
				Reason: entity.SkipInvalidFormat,
				Detail: "not a channel ID",
			})
			continue
		}

		info, err := c.directory.ChannelInfo(ctx, id)
		if err != nil {
			if domainerrors.IsAuthError(err) {
				return fmt.Errorf("resolving channel %s: %w", id, err)
			}
			skipped = append(skipped, entity.SkippedChannel{
				ID:     id,
				Reason: classifyLookup(err),
				Detail: err.Error(),
			})
			continue
		}

		if !info.IsMember {
			skipped = append(skipped, entity.SkippedChannel{
				ID:     id,
				Reason: entity.SkipNotAMember,
				Detail: "bot is not a member",
			})
			continue
		}

		kept = append(kept, id)
		keptSet[id] = struct{}{}
		names[id] = channelDisplayName(info)
	}

	c.mu.Lock()
	c.kept = kept
	c.keptSet = keptSet
	c.channelNames = names
	c.skipped = skipped
	recorder := c.recorder
	c.mu.Unlock()

	for _, s := range skipped {
		c.logger.Warn("channel skipped",
			"team", c.cfg.Name,
			"channel", s.ID,
			"reason", string(s.Reason),
			"detail", s.Detail,
		)
		if recorder != nil {
			recorder.RecordSkippedChannel(ctx, c.cfg.Name, string(s.Reason))
		}
	}

	c.logger.Info("channel subscription complete",
		"team", c.cfg.Name,
		"subscribed", len(kept),
		"skipped", len(skipped),
	)

	if len(kept) == 0 && len(c.cfg.Channels) > 0 {
		retryable := true
		for _, s := range skipped {
			if !s.Reason.Retryable() {
				retryable = false
				break
			}
		}
		return &NoValidChannelsError{
			Team:       c.cfg.Name,
			Configured: len(c.cfg.Channels),
			Retryable:  retryable,
		}
	}

	return nil
}

// channelDisplayName renders the "#name" form, falling back to the raw ID
// when the platform returned no name.
func channelDisplayName(info ChannelInfo) string {
	if info.Name == "" {
		return info.ID
	}
	return "#" + info.Name
}

// startPump starts the event pump exactly once per client lifetime.
func (c *Client) startPump() {
	c.mu.Lock()
	if c.pumpStarted {
		c.mu.Unlock()
		return
	}
	c.pumpStarted = true
	ctx := c.runCtx
	c.mu.Unlock()

	c.wg.Add(1)
	go c.pumpEvents(ctx)
}

// pumpEvents consumes transport events until the run context ends or the
// transport closes its channel. A panic in event handling is contained so
// one malformed event cannot kill the team.
func (c *Client) pumpEvents(ctx context.Context) {
	defer c.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event pump panic recovered", "team", c.cfg.Name, "panic", r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("event pump stopped", "team", c.cfg.Name)
			return

		case evt, ok := <-c.transport.Events():
			if !ok {
				c.logger.Debug("transport event channel closed", "team", c.cfg.Name)
				return
			}
			c.handleTransportEvent(ctx, evt)
		}
	}
}

// handleTransportEvent routes one transport event.
func (c *Client) handleTransportEvent(ctx context.Context, evt TransportEvent) {
	switch evt.Type {
	case EventConnected:
		c.mu.Lock()
		// The transport healed on its own; abort any pending reconnect.
		if c.status == StatusDisconnected || c.status == StatusConnected {
			c.status = StatusConnected
			c.attempts = 0
			if c.reconnectTimer != nil {
				c.reconnectTimer.Stop()
				c.reconnectTimer = nil
			}
		}
		c.mu.Unlock()
		c.logger.Info("transport connected", "team", c.cfg.Name)

	case EventDisconnected, EventError:
		c.handleTransportFailure(evt.Err)

	case EventMessage:
		if evt.Message != nil {
			c.handleMessage(ctx, *evt.Message)
		}
	}
}

// handleTransportFailure reacts to a lost or failing session: credential
// failures invalidate, anything else parks the client disconnected and
// schedules a reconnect.
func (c *Client) handleTransportFailure(err error) {
	if err == nil {
		err = errors.New("transport connection lost")
	}

	if domainerrors.IsAuthError(err) {
		c.invalidate(err)
		return
	}

	c.mu.Lock()
	if c.status.Terminal() {
		c.mu.Unlock()
		return
	}
	c.status = StatusDisconnected
	c.mu.Unlock()

	c.logger.Warn("transport lost", "team", c.cfg.Name, "error", err)
	c.scheduleReconnect()
}

// handleMessage demultiplexes one inbound message: unknown channels, bot
// posts and subtyped events are dropped, names are resolved, and the
// result goes to the sink.
func (c *Client) handleMessage(ctx context.Context, rm RawMessage) {
	c.mu.Lock()
	_, subscribed := c.keptSet[rm.ChannelID]
	displayName := c.channelNames[rm.ChannelID]
	sink := c.sink
	recorder := c.recorder
	c.mu.Unlock()

	switch {
	case !subscribed:
		c.recordDrop(ctx, recorder, "unknown-channel")
		return
	case rm.BotID != "":
		c.recordDrop(ctx, recorder, "bot")
		return
	case rm.SubType != "":
		c.recordDrop(ctx, recorder, "subtype")
		return
	case sink == nil:
		c.recordDrop(ctx, recorder, "no-sink")
		return
	}

	if displayName == "" {
		displayName = rm.ChannelID
	}

	msg := entity.NewMessage(
		c.cfg.Name,
		displayName,
		rm.ChannelID,
		c.resolveUser(ctx, rm.UserID),
		rm.Text,
		rm.Timestamp,
	)

	if recorder != nil {
		recorder.RecordMessage(ctx, c.cfg.Name)
	}
	sink(msg)
}

// resolveUser turns a user ID into a display name, falling back to the
// raw ID on any lookup failure.
func (c *Client) resolveUser(ctx context.Context, userID string) string {
	if userID == "" {
		return ""
	}

	info, err := c.directory.UserInfo(ctx, userID)
	if err != nil {
		c.logger.Debug("user lookup failed",
			"team", c.cfg.Name,
			"user", userID,
			"error", err,
		)
		return userID
	}

	if name := info.Preferred(); name != "" {
		return name
	}
	return userID
}

// recordDrop logs and counts one filtered event.
func (c *Client) recordDrop(ctx context.Context, recorder Recorder, reason string) {
	c.logger.Debug("message dropped", "team", c.cfg.Name, "reason", reason)
	if recorder != nil {
		recorder.RecordDrop(ctx, c.cfg.Name, reason)
	}
}

// scheduleReconnect arms the backoff timer for the next attempt. It is a
// no-op when the client left the disconnected state, a timer is already
// pending, or the attempt budget is spent.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()

	if c.status != StatusDisconnected || c.reconnectTimer != nil {
		c.mu.Unlock()
		return
	}

	if c.attempts >= c.policy.MaxAttempts {
		attempts := c.attempts
		c.mu.Unlock()
		c.logger.Error("reconnect attempts exhausted",
			"team", c.cfg.Name,
			"attempts", attempts,
		)
		c.reportError(fmt.Errorf("team %s: reconnect attempts exhausted after %d tries", c.cfg.Name, attempts))
		return
	}

	delay := c.policy.Backoff(c.attempts)
	c.attempts++
	attempt := c.attempts
	recorder := c.recorder
	c.reconnectTimer = time.AfterFunc(delay, c.reconnect)
	ctx := c.runCtx
	c.mu.Unlock()

	if recorder != nil {
		recorder.RecordReconnect(ctx, c.cfg.Name)
	}
	c.logger.Info("reconnect scheduled",
		"team", c.cfg.Name,
		"attempt", attempt,
		"max_attempts", c.policy.MaxAttempts,
		"delay", delay.String(),
	)
}

// reconnect fires when the backoff timer elapses. The state is re-checked
// so a disconnect or invalidation that landed while the timer was pending
// wins.
func (c *Client) reconnect() {
	c.mu.Lock()
	c.reconnectTimer = nil
	if c.status != StatusDisconnected {
		c.mu.Unlock()
		return
	}
	ctx := c.runCtx
	c.mu.Unlock()

	if err := c.Connect(ctx); err != nil {
		c.logger.Warn("reconnect attempt failed", "team", c.cfg.Name, "error", err)
	}
}

// invalidate marks the credential pair dead. The state is terminal: the
// reconnect timer is cancelled, the session is torn down, and every later
// Connect is a no-op.
func (c *Client) invalidate(cause error) {
	c.mu.Lock()
	if c.status.Terminal() {
		c.mu.Unlock()
		return
	}
	c.status = StatusInvalidated
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.kept = nil
	c.keptSet = nil
	c.channelNames = nil
	c.mu.Unlock()

	c.logger.Error("team credentials invalidated", "team", c.cfg.Name, "error", cause)

	if err := c.transport.Close(); err != nil {
		c.logger.Warn("closing transport", "team", c.cfg.Name, "error", err)
	}

	c.reportError(fmt.Errorf("team %s invalidated: %w", c.cfg.Name, cause))
}

// Disconnect deliberately shuts the client down. Idempotent and safe from
// any state, including mid-connect.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.status == StatusClosed {
		c.mu.Unlock()
		return nil
	}
	c.status = StatusClosed
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
	c.kept = nil
	c.keptSet = nil
	c.channelNames = nil
	cancel := c.cancelRun
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	err := c.transport.Close()
	c.wg.Wait()

	c.logger.Info("team disconnected", "team", c.cfg.Name)

	if err != nil {
		return fmt.Errorf("closing transport: %w", err)
	}
	return nil
}

// reportError delivers a terminal failure to the error callback on its
// own goroutine, so the callback may safely call Disconnect.
func (c *Client) reportError(err error) {
	c.mu.Lock()
	fn := c.onError
	c.mu.Unlock()

	if fn == nil {
		return
	}
	go fn(err)
}

// Name returns the configured team name.
func (c *Client) Name() string { return c.cfg.Name }

// Status returns the current lifecycle state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// IsConnected reports whether events are flowing.
func (c *Client) IsConnected() bool {
	return c.Status() == StatusConnected
}

// IsInvalidated reports whether the credential pair was declared dead.
func (c *Client) IsInvalidated() bool {
	return c.Status() == StatusInvalidated
}

// SubscribedChannels returns the surviving channel IDs in configured
// order.
func (c *Client) SubscribedChannels() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.kept))
	copy(out, c.kept)
	return out
}

// SkippedChannels returns the exclusions from the latest subscription
// pass, in configured order.
func (c *Client) SkippedChannels() []entity.SkippedChannel {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]entity.SkippedChannel, len(c.skipped))
	copy(out, c.skipped)
	return out
}
