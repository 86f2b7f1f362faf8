package app

import (
	"fmt"

	"github.com/slacktail/slacktail/internal/infrastructure/config"
	"github.com/slacktail/slacktail/internal/infrastructure/logging"
)

func (app *Application) bootstrap(configPath string) error {
	// 1. Load configuration
	if err := app.loadConfig(configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// 2. Setup logger
	if err := app.setupLogger(); err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}

	// 3. Setup telemetry (OpenTelemetry)
	if err := app.setupTelemetry(); err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}

	// 4. Setup highlight matcher
	if err := app.setupHighlight(); err != nil {
		return fmt.Errorf("setting up highlight matcher: %w", err)
	}

	// 5. Setup message pipeline and handlers
	if err := app.setupPipeline(); err != nil {
		return fmt.Errorf("setting up pipeline: %w", err)
	}

	// 6. Initialize team clients
	if err := app.initializeTeams(); err != nil {
		return fmt.Errorf("initializing teams: %w", err)
	}

	// 7. Setup config manager with reload callback
	if err := app.setupConfigManager(configPath); err != nil {
		return fmt.Errorf("setting up config manager: %w", err)
	}

	// 8. Setup ops HTTP server
	if err := app.setupServer(); err != nil {
		return fmt.Errorf("setting up server: %w", err)
	}

	return nil
}

func (app *Application) loadConfig(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	app.config = cfg
	return nil
}

func (app *Application) setupLogger() error {
	app.logger = logging.New(app.config.Logging.Level, app.config.Logging.Format)
	return nil
}

func (app *Application) setupConfigManager(configPath string) error {
	manager := config.NewConfigManager(configPath, app.config, app.logger)
	manager.OnReload(app.applyReload)

	if err := manager.Watch(); err != nil {
		return err
	}

	app.configManager = manager
	return nil
}

// applyReload pushes reloadable settings into the running components.
// Static changes never reach here; the manager keeps the running values
// and asks for a restart instead.
func (app *Application) applyReload(old, next *config.Config) {
	app.console.SetEnabled(next.Handlers.Console.Enabled)
	app.notification.SetEnabled(next.Handlers.Notification.Enabled)
	app.speech.SetEnabled(next.Handlers.Speech.Enabled)
	app.speech.SetCommand(next.Handlers.Speech.Command)

	if err := app.matcher.SetKeywords(next.Highlight.Keywords); err != nil {
		app.logger.Error("applying highlight keywords", "error", err)
	}

	if old.Logging.Level != next.Logging.Level {
		app.logger.SetLevel(next.Logging.Level)
		app.logger.Info("log level changed", "level", next.Logging.Level)
	}
}
