package app

import (
	"github.com/slacktail/slacktail/internal/infrastructure/observability"
)

// setupTelemetry initializes OpenTelemetry metrics when the ops server is
// enabled. With metrics off the recorders stay nil and recording is a
// no-op throughout.
func (app *Application) setupTelemetry() error {
	if !app.config.Metrics.Enabled {
		app.logger.Debug("metrics disabled, telemetry not started")
		return nil
	}

	telemetry, err := observability.NewTelemetry(observability.ServiceName, app.version)
	if err != nil {
		return err
	}

	app.telemetry = telemetry

	app.logger.Info("telemetry initialized",
		"service", observability.ServiceName,
		"metrics_enabled", true,
		"tracing_enabled", false,
	)

	return nil
}
