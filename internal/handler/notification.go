package handler

import (
	"context"
	"sync/atomic"

	"github.com/slacktail/slacktail/internal/domain/entity"
)

// Notification is a placeholder for a desktop notification channel. It
// participates in registration and toggling but intentionally produces no
// side effects yet. Disabled by default.
type Notification struct {
	enabled atomic.Bool
}

// NewNotification creates the notification placeholder.
func NewNotification() *Notification {
	return &Notification{}
}

// Handle accepts the message and does nothing.
func (n *Notification) Handle(context.Context, entity.Message) error {
	return nil
}

// Name returns "notification".
func (n *Notification) Name() string { return "notification" }

// Enabled reports whether the handler receives messages.
func (n *Notification) Enabled() bool { return n.enabled.Load() }

// SetEnabled toggles the handler at runtime.
func (n *Notification) SetEnabled(v bool) { n.enabled.Store(v) }
