package slack

// Logger interface for structured logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// sdkLogAdapter routes the Slack SDK's internal log output through the
// structured logger at debug level. It satisfies the SDK's logger
// contract, which mirrors log.Logger's Output method.
type sdkLogAdapter struct {
	logger Logger
}

func (a sdkLogAdapter) Output(_ int, s string) error {
	a.logger.Debug("slack sdk", "message", s)
	return nil
}
