// Package handler contains the built-in message handlers dispatched by
// the pipeline: the console renderer plus the notification and speech
// placeholders.
package handler

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"

	"github.com/slacktail/slacktail/internal/domain/entity"
)

// Highlighter decides whether a message deserves emphasis. The decision
// runs on the raw message text, before any sanitizing.
type Highlighter interface {
	MatchesAny(text string) bool
}

var (
	// controlChars strips non-printable control characters. Tab, newline
	// and carriage return survive so the collapse step can handle them.
	controlChars = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	newlineRuns  = regexp.MustCompile(`\r?\n`)
	spaceRuns    = regexp.MustCompile(`\s+`)
)

// sanitizeText makes message text safe and compact for a single console
// line: control characters removed, newlines turned into spaces,
// whitespace runs collapsed, ends trimmed.
func sanitizeText(text string) string {
	text = controlChars.ReplaceAllString(text, "")
	text = newlineRuns.ReplaceAllString(text, " ")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Console renders messages as "{team}/{channel}/{user} > {text}" lines.
// Enabled by default. Writes are serialized so concurrent dispatch never
// interleaves two lines.
type Console struct {
	enabled   atomic.Bool
	highlight Highlighter

	mu  sync.Mutex
	out io.Writer

	emphasis *color.Color
}

// NewConsole creates the console handler. A nil writer means stdout; a
// nil highlighter disables emphasis entirely.
func NewConsole(out io.Writer, highlighter Highlighter) *Console {
	if out == nil {
		out = os.Stdout
	}

	// Color stays on even when stdout is not a terminal, so piped output
	// keeps the same emphasis codes.
	emphasis := color.New(color.FgRed, color.Bold)
	emphasis.EnableColor()

	c := &Console{
		out:       out,
		highlight: highlighter,
		emphasis:  emphasis,
	}
	c.enabled.Store(true)
	return c
}

// Name returns "console".
func (c *Console) Name() string { return "console" }

// Enabled reports whether the handler renders messages.
func (c *Console) Enabled() bool { return c.enabled.Load() }

// SetEnabled toggles rendering at runtime.
func (c *Console) SetEnabled(v bool) { c.enabled.Store(v) }

// Handle renders one message. The highlight check runs on the original
// text so patterns spanning newlines still fire after the newlines are
// collapsed away.
func (c *Console) Handle(_ context.Context, msg entity.Message) error {
	line := fmt.Sprintf("%s/%s/%s > %s",
		msg.TeamName, msg.ChannelName, msg.UserName, sanitizeText(msg.Text))

	if c.highlight != nil && c.highlight.MatchesAny(msg.Text) {
		line = c.emphasis.Sprint(line)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintln(c.out, line); err != nil {
		return fmt.Errorf("writing console line: %w", err)
	}
	return nil
}
