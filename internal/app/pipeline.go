package app

import (
	"github.com/slacktail/slacktail/internal/handler"
	"github.com/slacktail/slacktail/internal/highlight"
	"github.com/slacktail/slacktail/internal/pipeline"
)

func (app *Application) setupHighlight() error {
	matcher, err := highlight.New(app.config.Highlight.Keywords...)
	if err != nil {
		return err
	}

	app.matcher = matcher
	return nil
}

func (app *Application) setupPipeline() error {
	app.pipeline = pipeline.New(app.logger, app.metrics())

	app.console = handler.NewConsole(nil, app.matcher)
	app.notification = handler.NewNotification()
	app.speech = handler.NewSpeech(app.config.Handlers.Speech.Command)

	app.console.SetEnabled(app.config.Handlers.Console.Enabled)
	app.notification.SetEnabled(app.config.Handlers.Notification.Enabled)
	app.speech.SetEnabled(app.config.Handlers.Speech.Enabled)

	for _, h := range []pipeline.Handler{app.console, app.notification, app.speech} {
		if err := app.pipeline.Register(h); err != nil {
			return err
		}
	}

	app.logger.Info("pipeline initialized",
		"handlers", app.pipeline.Len(),
		"enabled", app.pipeline.EnabledLen(),
		"highlight_keywords", app.matcher.Len(),
	)

	return nil
}
