package handler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/slacktail/slacktail/internal/domain/entity"
)

// DefaultSpeechCommand is the text-to-speech binary used when the config
// names none.
const DefaultSpeechCommand = "say"

// Speech is a placeholder for a text-to-speech channel. The command is
// kept configurable so enabling the real implementation later is a config
// change, not a code change. Disabled by default.
type Speech struct {
	enabled atomic.Bool

	mu      sync.RWMutex
	command string
}

// NewSpeech creates the speech placeholder. An empty command falls back
// to DefaultSpeechCommand.
func NewSpeech(command string) *Speech {
	if command == "" {
		command = DefaultSpeechCommand
	}
	return &Speech{command: command}
}

// Handle accepts the message and does nothing.
func (s *Speech) Handle(context.Context, entity.Message) error {
	return nil
}

// Name returns "speech".
func (s *Speech) Name() string { return "speech" }

// Enabled reports whether the handler receives messages.
func (s *Speech) Enabled() bool { return s.enabled.Load() }

// SetEnabled toggles the handler at runtime.
func (s *Speech) SetEnabled(v bool) { s.enabled.Store(v) }

// Command returns the configured text-to-speech command.
func (s *Speech) Command() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.command
}

// SetCommand replaces the command at runtime. Empty input restores the
// default.
func (s *Speech) SetCommand(command string) {
	if command == "" {
		command = DefaultSpeechCommand
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.command = command
}
