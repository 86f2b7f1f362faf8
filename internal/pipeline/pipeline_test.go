package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slacktail/slacktail/internal/domain/entity"
)

type fakeHandler struct {
	name    string
	enabled bool
	fail    error
	panics  bool

	mu  sync.Mutex
	got []entity.Message
}

func (f *fakeHandler) Handle(_ context.Context, msg entity.Message) error {
	f.mu.Lock()
	f.got = append(f.got, msg)
	f.mu.Unlock()

	if f.panics {
		panic("handler exploded")
	}
	return f.fail
}

func (f *fakeHandler) Name() string  { return f.name }
func (f *fakeHandler) Enabled() bool { return f.enabled }

func (f *fakeHandler) received() []entity.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.Message, len(f.got))
	copy(out, f.got)
	return out
}

type fakeRecorder struct {
	mu       sync.Mutex
	handlers []string
	failures int
}

func (r *fakeRecorder) RecordDispatch(_ context.Context, handler string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, handler)
	if err != nil {
		r.failures++
	}
}

func newTestPipeline() *Pipeline {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestRegister(t *testing.T) {
	p := newTestPipeline()

	require.NoError(t, p.Register(&fakeHandler{name: "console", enabled: true}))
	assert.Equal(t, 1, p.Len())

	assert.ErrorIs(t, p.Register(nil), ErrInvalidHandler)
	assert.ErrorIs(t, p.Register(&fakeHandler{name: ""}), ErrInvalidHandler)
	assert.Equal(t, 1, p.Len())
}

func TestRegister_ReplaceKeepsPosition(t *testing.T) {
	p := newTestPipeline()

	first := &fakeHandler{name: "console", enabled: true}
	second := &fakeHandler{name: "speech", enabled: true}
	replacement := &fakeHandler{name: "console", enabled: false}

	require.NoError(t, p.Register(first))
	require.NoError(t, p.Register(second))
	require.NoError(t, p.Register(replacement))

	handlers := p.Handlers()
	require.Len(t, handlers, 2)
	assert.Same(t, replacement, handlers[0])
	assert.Same(t, second, handlers[1])
}

func TestUnregister(t *testing.T) {
	p := newTestPipeline()
	require.NoError(t, p.Register(&fakeHandler{name: "console", enabled: true}))

	assert.True(t, p.Unregister("console"))
	assert.False(t, p.Unregister("console"))
	assert.Equal(t, 0, p.Len())
}

func TestHandlerLookup(t *testing.T) {
	p := newTestPipeline()
	h := &fakeHandler{name: "console", enabled: true}
	require.NoError(t, p.Register(h))

	got, ok := p.Handler("console")
	assert.True(t, ok)
	assert.Same(t, h, got)

	_, ok = p.Handler("missing")
	assert.False(t, ok)
}

func TestEnabledLen(t *testing.T) {
	p := newTestPipeline()
	require.NoError(t, p.Register(&fakeHandler{name: "a", enabled: true}))
	require.NoError(t, p.Register(&fakeHandler{name: "b", enabled: false}))
	require.NoError(t, p.Register(&fakeHandler{name: "c", enabled: true}))

	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 2, p.EnabledLen())

	p.Clear()
	assert.Equal(t, 0, p.Len())
}

func TestProcessMessage_SkipsDisabledHandlers(t *testing.T) {
	p := newTestPipeline()
	on := &fakeHandler{name: "on", enabled: true}
	off := &fakeHandler{name: "off", enabled: false}
	require.NoError(t, p.Register(on))
	require.NoError(t, p.Register(off))

	msg := entity.NewMessage("acme", "#general", "C0123456789", "alice", "hi", "1.0")
	require.NoError(t, p.ProcessMessage(context.Background(), msg))

	assert.Len(t, on.received(), 1)
	assert.Empty(t, off.received())
}

func TestProcessMessage_FaultIsolation(t *testing.T) {
	rec := &fakeRecorder{}
	p := New(slog.New(slog.NewTextHandler(io.Discard, nil)), rec)

	ok1 := &fakeHandler{name: "ok1", enabled: true}
	failing := &fakeHandler{name: "failing", enabled: true, fail: errors.New("write error")}
	panicking := &fakeHandler{name: "panicking", enabled: true, panics: true}
	ok2 := &fakeHandler{name: "ok2", enabled: true}

	for _, h := range []*fakeHandler{ok1, failing, panicking, ok2} {
		require.NoError(t, p.Register(h))
	}

	msg := entity.NewMessage("acme", "#general", "C0123456789", "alice", "hi", "1.0")
	err := p.ProcessMessage(context.Background(), msg)

	require.NoError(t, err)
	assert.Len(t, ok1.received(), 1)
	assert.Len(t, failing.received(), 1)
	assert.Len(t, panicking.received(), 1)
	assert.Len(t, ok2.received(), 1)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.failures)
	// The panicking handler never reaches the recorder.
	assert.Len(t, rec.handlers, 3)
}

func TestProcessMessage_NoHandlers(t *testing.T) {
	p := newTestPipeline()
	msg := entity.NewMessage("acme", "#general", "C0123456789", "alice", "hi", "1.0")
	assert.NoError(t, p.ProcessMessage(context.Background(), msg))
}

func TestProcessMessages_ChronologicalAcrossTeams(t *testing.T) {
	p := newTestPipeline()
	h := &fakeHandler{name: "recorder", enabled: true}
	require.NoError(t, p.Register(h))

	msgs := []entity.Message{
		entity.NewMessage("A", "#general", "C0000000001", "u1", "third", "1000.000300"),
		entity.NewMessage("B", "#random", "C0000000002", "u2", "second", "1000.000200"),
		entity.NewMessage("A", "#general", "C0000000001", "u1", "first", "1000.000100"),
	}

	require.NoError(t, p.ProcessMessages(context.Background(), msgs))

	got := h.received()
	require.Len(t, got, 3)

	var order []string
	for _, m := range got {
		order = append(order, fmt.Sprintf("%s/%s", m.TeamName, m.Text))
	}
	assert.Equal(t, []string{"A/first", "B/second", "A/third"}, order)
}

func TestProcessMessages_EmptyInput(t *testing.T) {
	p := newTestPipeline()
	assert.NoError(t, p.ProcessMessages(context.Background(), nil))
	assert.NoError(t, p.ProcessMessages(context.Background(), []entity.Message{}))
}

func TestProcessMessages_ContextCanceled(t *testing.T) {
	p := newTestPipeline()
	h := &fakeHandler{name: "recorder", enabled: true}
	require.NoError(t, p.Register(h))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msgs := []entity.Message{
		entity.NewMessage("A", "#general", "C0000000001", "u1", "hi", "1.0"),
	}
	assert.ErrorIs(t, p.ProcessMessages(ctx, msgs), context.Canceled)
	assert.Empty(t, h.received())
}

func TestSortByTimestamp(t *testing.T) {
	in := []entity.Message{
		{Text: "b", Timestamp: "2000.5", WallTime: entity.ParseTimestamp("2000.5")},
		{Text: "a", Timestamp: "1000.5", WallTime: entity.ParseTimestamp("1000.5")},
		{Text: "c", Timestamp: "3000.5", WallTime: entity.ParseTimestamp("3000.5")},
	}

	out := SortByTimestamp(in)

	assert.Equal(t, "a", out[0].Text)
	assert.Equal(t, "b", out[1].Text)
	assert.Equal(t, "c", out[2].Text)
	// Input untouched.
	assert.Equal(t, "b", in[0].Text)
}

func TestSortByTimestamp_FallbackAndTies(t *testing.T) {
	in := []entity.Message{
		{Text: "late", Timestamp: "500.1"},
		{Text: "garbage-first", Timestamp: "not-a-ts"},
		{Text: "tie-1", Timestamp: "100.0"},
		{Text: "tie-2", Timestamp: "100.0"},
	}

	out := SortByTimestamp(in)

	require.Len(t, out, 4)
	assert.Equal(t, "garbage-first", out[0].Text)
	assert.Equal(t, "tie-1", out[1].Text)
	assert.Equal(t, "tie-2", out[2].Text)
	assert.Equal(t, "late", out[3].Text)
}

func TestSortByTimestamp_NilInput(t *testing.T) {
	out := SortByTimestamp(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
