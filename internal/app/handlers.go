package app

import (
	"context"
	"errors"
	"time"

	ophandler "github.com/slacktail/slacktail/internal/adapter/handler"
	"github.com/slacktail/slacktail/internal/infrastructure/server"
)

const opsRequestTimeout = 10 * time.Second

func (app *Application) initializeHandlers() error {
	// Report ready once at least one team holds a live connection.
	readyHandler := ophandler.NewReadyHandler()
	readyHandler.AddChecker("teams", ophandler.CheckerFunc(func(ctx context.Context) error {
		if app.supervisor.ConnectedCount() == 0 {
			return errors.New("no teams connected")
		}
		return nil
	}))

	app.handlers = &server.Handlers{
		Health:  ophandler.NewHealthHandler(app.supervisor),
		Ready:   readyHandler,
		Metrics: ophandler.NewMetricsHandler(),
		Reload:  ophandler.NewReloadHandler(app.configManager, app.logger),
	}

	return nil
}

func (app *Application) setupServer() error {
	if !app.config.Metrics.Enabled {
		app.logger.Debug("metrics disabled, ops server not started")
		return nil
	}

	if err := app.initializeHandlers(); err != nil {
		return err
	}

	routerConfig := &server.RouterConfig{
		Metrics:        app.metrics(),
		RequestTimeout: opsRequestTimeout,
	}
	router := server.NewRouterWithConfig(app.handlers, app.logger.Logger, routerConfig)
	app.server = server.New(app.config.Metrics, router, app.logger.Logger)

	return nil
}
