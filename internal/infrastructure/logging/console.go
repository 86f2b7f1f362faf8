package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// ConsoleHandler renders one diagnostic line per record in the form
// `[LEVEL] message key=value`. The stock text handler prefixes every
// record with time= and level= fields, which breaks the bracketed
// diagnostic stream, so this handler owns the format directly.
type ConsoleHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	level slog.Leveler

	preattrs []byte
	prefix   string
}

// NewConsoleHandler creates a handler writing to out. A nil level means
// info and above.
func NewConsoleHandler(out io.Writer, level slog.Leveler) *ConsoleHandler {
	return &ConsoleHandler{
		mu:    &sync.Mutex{},
		out:   out,
		level: level,
	}
}

func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.level != nil {
		min = h.level.Level()
	}
	return level >= min
}

func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	buf := make([]byte, 0, 256)
	buf = append(buf, '[')
	buf = append(buf, levelTag(r.Level)...)
	buf = append(buf, "] "...)
	buf = append(buf, r.Message...)
	buf = append(buf, h.preattrs...)
	r.Attrs(func(attr slog.Attr) bool {
		buf = appendAttr(buf, attr, h.prefix)
		return true
	})
	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	pre := make([]byte, len(h.preattrs), len(h.preattrs)+64)
	copy(pre, h.preattrs)
	for _, attr := range attrs {
		pre = appendAttr(pre, attr, h.prefix)
	}
	h2.preattrs = pre
	return &h2
}

func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

// appendAttr renders one attribute as ` key=value`, expanding groups
// into dotted keys and dropping empty attrs per the slog contract.
func appendAttr(buf []byte, attr slog.Attr, prefix string) []byte {
	attr.Value = attr.Value.Resolve()

	if attr.Value.Kind() == slog.KindGroup {
		group := attr.Value.Group()
		if len(group) == 0 {
			return buf
		}
		if attr.Key != "" {
			prefix = prefix + attr.Key + "."
		}
		for _, ga := range group {
			buf = appendAttr(buf, ga, prefix)
		}
		return buf
	}

	if attr.Key == "" {
		return buf
	}

	buf = append(buf, ' ')
	buf = append(buf, prefix...)
	buf = append(buf, attr.Key...)
	buf = append(buf, '=')
	return appendValue(buf, attr.Value.String())
}

func appendValue(buf []byte, val string) []byte {
	if strings.ContainsAny(val, " \t\n\"") {
		buf = append(buf, '"')
		for _, r := range val {
			switch r {
			case '"':
				buf = append(buf, '\\', '"')
			case '\n':
				buf = append(buf, '\\', 'n')
			case '\t':
				buf = append(buf, '\\', 't')
			default:
				buf = append(buf, string(r)...)
			}
		}
		buf = append(buf, '"')
		return buf
	}
	return append(buf, val...)
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
