// Package pipeline fans incoming messages out to a registry of named
// handlers. Handlers are isolated from each other: one failing or even
// panicking never stops the rest.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/slacktail/slacktail/internal/domain/entity"
)

// ErrInvalidHandler is returned when registering a nil handler or one
// without a name.
var ErrInvalidHandler = errors.New("invalid handler")

// Pipeline is the shared dispatch point for all teams. Registration order
// is preserved so iteration stays deterministic.
type Pipeline struct {
	mu       sync.RWMutex
	handlers []Handler

	logger   Logger
	recorder Recorder
}

// New creates a pipeline. The recorder may be nil to disable metrics.
func New(logger Logger, recorder Recorder) *Pipeline {
	return &Pipeline{
		logger:   logger,
		recorder: recorder,
	}
}

// Register adds a handler under its own name. Registering a name that is
// already present replaces the previous handler in place, keeping its
// position in the dispatch order.
func (p *Pipeline) Register(h Handler) error {
	if h == nil {
		return ErrInvalidHandler
	}
	name := h.Name()
	if name == "" {
		return ErrInvalidHandler
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i, existing := range p.handlers {
		if existing.Name() == name {
			p.handlers[i] = h
			p.logger.Info("handler replaced", "handler", name)
			return nil
		}
	}

	p.handlers = append(p.handlers, h)
	p.logger.Debug("handler registered", "handler", name)
	return nil
}

// Unregister removes a handler by name. Returns true when something was
// removed.
func (p *Pipeline) Unregister(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, h := range p.handlers {
		if h.Name() == name {
			p.handlers = append(p.handlers[:i], p.handlers[i+1:]...)
			return true
		}
	}
	return false
}

// Handler returns the handler registered under name.
func (p *Pipeline) Handler(name string) (Handler, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, h := range p.handlers {
		if h.Name() == name {
			return h, true
		}
	}
	return nil, false
}

// Handlers returns all registered handlers in registration order.
func (p *Pipeline) Handlers() []Handler {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Handler, len(p.handlers))
	copy(out, p.handlers)
	return out
}

// Len returns the number of registered handlers.
func (p *Pipeline) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.handlers)
}

// EnabledLen returns the number of handlers currently enabled.
func (p *Pipeline) EnabledLen() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := 0
	for _, h := range p.handlers {
		if h.Enabled() {
			n++
		}
	}
	return n
}

// Clear removes every handler.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = nil
}

// ProcessMessage dispatches one message to every enabled handler
// concurrently and waits for all of them to settle. Handler errors are
// logged and recorded but never returned; the message is considered
// processed once every handler had its chance.
func (p *Pipeline) ProcessMessage(ctx context.Context, msg entity.Message) error {
	enabled := p.enabledSnapshot()
	if len(enabled) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for _, h := range enabled {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			p.dispatch(ctx, h, msg)
		}(h)
	}
	wg.Wait()

	return nil
}

// ProcessMessages sorts a batch chronologically and processes it one
// message at a time, so bulk delivery from several teams interleaves in
// timestamp order.
func (p *Pipeline) ProcessMessages(ctx context.Context, msgs []entity.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	for _, msg := range SortByTimestamp(msgs) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.ProcessMessage(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// enabledSnapshot copies the enabled handlers so dispatch never holds the
// registry lock while handlers run.
func (p *Pipeline) enabledSnapshot() []Handler {
	p.mu.RLock()
	defer p.mu.RUnlock()

	enabled := make([]Handler, 0, len(p.handlers))
	for _, h := range p.handlers {
		if h.Enabled() {
			enabled = append(enabled, h)
		}
	}
	return enabled
}

// dispatch runs one handler with panic containment.
func (p *Pipeline) dispatch(ctx context.Context, h Handler, msg entity.Message) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("handler panic recovered",
				"handler", h.Name(),
				"team", msg.TeamName,
				"panic", r,
			)
		}
	}()

	start := time.Now()
	err := h.Handle(ctx, msg)
	if p.recorder != nil {
		p.recorder.RecordDispatch(ctx, h.Name(), time.Since(start), err)
	}
	if err != nil {
		p.logger.Error("handler failed",
			"handler", h.Name(),
			"team", msg.TeamName,
			"channel", msg.ChannelID,
			"error", err,
		)
	}
}
