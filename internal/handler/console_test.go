package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slacktail/slacktail/internal/domain/entity"
	"github.com/slacktail/slacktail/internal/highlight"
	"github.com/slacktail/slacktail/internal/pipeline"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func testMessage(text string) entity.Message {
	return entity.NewMessage("acme", "#general", "C0123456789", "alice", text, "1688149256.000100")
}

func TestConsole_RendersLine(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, nil)

	require.NoError(t, c.Handle(context.Background(), testMessage("hello world")))
	assert.Equal(t, "acme/#general/alice > hello world\n", buf.String())
}

func TestConsole_Defaults(t *testing.T) {
	c := NewConsole(nil, nil)
	assert.Equal(t, "console", c.Name())
	assert.True(t, c.Enabled())

	c.SetEnabled(false)
	assert.False(t, c.Enabled())
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"control bytes stripped", "a\x00b\x07c\x1bd\x7fe", "abcde"},
		{"vertical tab and form feed stripped", "a\x0bb\x0cc", "abc"},
		{"newline to space", "line1\nline2", "line1 line2"},
		{"crlf to single space", "line1\r\nline2", "line1 line2"},
		{"lone carriage return collapsed", "a\rb", "a b"},
		{"tab collapsed", "a\tb", "a b"},
		{"whitespace runs collapsed", "a  \t \n  b", "a b"},
		{"trimmed", "  padded  ", "padded"},
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeText(tt.in))
		})
	}
}

func TestConsole_EmptyFieldsRenderAsEmpty(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, nil)

	require.NoError(t, c.Handle(context.Background(), entity.Message{}))
	assert.Equal(t, "// > \n", buf.String())
}

func TestConsole_HighlightWrapsWholeLine(t *testing.T) {
	m, err := highlight.New("/deploy/i")
	require.NoError(t, err)

	var buf bytes.Buffer
	c := NewConsole(&buf, m)

	require.NoError(t, c.Handle(context.Background(), testMessage("Deploy finished")))
	assert.Equal(t, "\x1b[31;1macme/#general/alice > Deploy finished\x1b[0m\n", buf.String())
}

func TestConsole_HighlightChecksOriginalText(t *testing.T) {
	// The pattern spans the newline that sanitizing later collapses; the
	// decision must still fire because it sees the raw text.
	m, err := highlight.New(`/deploy\s+now/`)
	require.NoError(t, err)

	var buf bytes.Buffer
	c := NewConsole(&buf, m)

	require.NoError(t, c.Handle(context.Background(), testMessage("deploy\nnow")))
	assert.Contains(t, buf.String(), "\x1b[31;1m")
	assert.Contains(t, buf.String(), "> deploy now")
}

func TestConsole_NoHighlightWhenOnlySanitizedFormMatches(t *testing.T) {
	// Anchored pattern matches the collapsed rendering but not the raw
	// text, so the line stays plain.
	m, err := highlight.New("/^deploy now$/")
	require.NoError(t, err)

	var buf bytes.Buffer
	c := NewConsole(&buf, m)

	require.NoError(t, c.Handle(context.Background(), testMessage("deploy\nnow")))
	assert.Equal(t, "acme/#general/alice > deploy now\n", buf.String())
}

func TestConsole_NilHighlighter(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, nil)

	require.NoError(t, c.Handle(context.Background(), testMessage("anything")))
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestConsole_WriterError(t *testing.T) {
	c := NewConsole(failingWriter{}, nil)

	err := c.Handle(context.Background(), testMessage("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestConsole_BulkProcessingInterleavesChronologically(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, nil)

	p := pipeline.New(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	require.NoError(t, p.Register(c))

	msgs := []entity.Message{
		entity.NewMessage("A", "#general", "C0000000001", "alice", "third", "1688149258.000000"),
		entity.NewMessage("B", "#random", "C0000000002", "bob", "second", "1688149257.000000"),
		entity.NewMessage("A", "#general", "C0000000001", "alice", "first", "1688149256.000000"),
	}

	require.NoError(t, p.ProcessMessages(context.Background(), msgs))

	want := "A/#general/alice > first\n" +
		"B/#random/bob > second\n" +
		"A/#general/alice > third\n"
	assert.Equal(t, want, buf.String())
}
