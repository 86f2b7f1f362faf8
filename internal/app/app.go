package app

import (
	"context"
	"fmt"
	"time"

	"github.com/slacktail/slacktail/internal/handler"
	"github.com/slacktail/slacktail/internal/highlight"
	"github.com/slacktail/slacktail/internal/infrastructure/config"
	"github.com/slacktail/slacktail/internal/infrastructure/logging"
	"github.com/slacktail/slacktail/internal/infrastructure/observability"
	"github.com/slacktail/slacktail/internal/infrastructure/server"
	"github.com/slacktail/slacktail/internal/pipeline"
	"github.com/slacktail/slacktail/internal/team"
)

// Application holds all application dependencies and lifecycle.
type Application struct {
	config        *config.Config
	configManager *config.ConfigManager
	logger        *logging.Logger
	telemetry     *observability.Telemetry
	version       string

	// Message flow
	matcher      *highlight.Matcher
	pipeline     *pipeline.Pipeline
	console      *handler.Console
	notification *handler.Notification
	speech       *handler.Speech

	// Team clients
	supervisor *team.Supervisor

	// Ops HTTP layer
	handlers *server.Handlers
	server   *server.Server
}

// New creates a fully wired application from the configuration at
// configPath.
func New(configPath, version string) (*Application, error) {
	app := &Application{version: version}

	if err := app.bootstrap(configPath); err != nil {
		return nil, err
	}

	return app, nil
}

// Run connects every configured team and tails until ctx is cancelled.
func (app *Application) Run(ctx context.Context) error {
	app.logger.Info("starting slacktail",
		"version", app.version,
		"teams", len(app.config.Teams),
		"handlers", app.pipeline.EnabledLen(),
	)

	serverErr := make(chan error, 1)
	if app.server != nil {
		go func() {
			if err := app.server.Run(ctx); err != nil {
				serverErr <- err
			}
		}()
	}

	if err := app.supervisor.ConnectAll(ctx); err != nil {
		return fmt.Errorf("connecting teams: %w", err)
	}

	app.logSkippedChannels()

	app.logger.Info("tailing channels",
		"teams_connected", app.supervisor.ConnectedCount(),
		"teams_total", app.supervisor.TeamCount(),
	)

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		// Tailing continues without the ops endpoints.
		app.logger.Error("ops server failed", "error", err)
		<-ctx.Done()
	}

	return nil
}

// logSkippedChannels reports every channel excluded at subscription time,
// teams in configured order, channels in configured order within a team.
func (app *Application) logSkippedChannels() {
	for _, name := range app.supervisor.TeamNames() {
		for _, skipped := range app.supervisor.SkippedChannels(name) {
			attrs := []any{
				"team", name,
				"channel", skipped.ID,
				"reason", string(skipped.Reason),
			}
			if skipped.Detail != "" {
				attrs = append(attrs, "detail", skipped.Detail)
			}
			app.logger.Warn("channel skipped", attrs...)
		}
	}
}

// Shutdown gracefully stops the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down slacktail")

	if app.configManager != nil {
		app.configManager.Stop()
	}

	err := app.supervisor.Shutdown()
	if err != nil {
		app.logger.Error("supervisor shutdown finished with errors", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if app.telemetry != nil {
		if terr := app.telemetry.Shutdown(ctx); terr != nil {
			app.logger.Error("failed to shutdown telemetry", "error", terr)
		}
	}

	app.logger.Info("slacktail stopped")
	return err
}

// metrics returns the metrics recorder, which is nil when telemetry is
// disabled. Every Metrics method tolerates the nil receiver.
func (app *Application) metrics() *observability.Metrics {
	if app.telemetry == nil {
		return nil
	}
	return app.telemetry.Metrics
}
