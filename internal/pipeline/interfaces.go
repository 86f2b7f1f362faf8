package pipeline

import (
	"context"
	"time"

	"github.com/slacktail/slacktail/internal/domain/entity"
)

// Handler consumes messages dispatched by the pipeline.
// New output channels implement this interface.
type Handler interface {
	// Handle processes a single message. Errors are contained by the
	// pipeline and never affect sibling handlers.
	Handle(ctx context.Context, msg entity.Message) error

	// Name returns the unique handler identifier (e.g. "console").
	Name() string

	// Enabled reports whether the handler currently receives messages.
	Enabled() bool
}

// Logger defines the contract for logging within the pipeline.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Recorder observes dispatch outcomes. Implementations must be safe for
// concurrent use; a nil Recorder disables recording.
type Recorder interface {
	RecordDispatch(ctx context.Context, handler string, duration time.Duration, err error)
}
