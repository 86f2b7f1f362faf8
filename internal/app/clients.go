package app

import (
	"fmt"

	"github.com/slacktail/slacktail/internal/infrastructure/slack"
	"github.com/slacktail/slacktail/internal/team"
)

// initializeTeams builds the supervisor and registers one client per
// configured team. Connections are not opened here; Run does that.
func (app *Application) initializeTeams() error {
	factory := func(cfg team.Config) (team.ManagedClient, error) {
		transport, err := slack.NewSocketTransport(cfg.AppToken, cfg.BotToken, false, app.logger)
		if err != nil {
			return nil, fmt.Errorf("building transport for %s: %w", cfg.Name, err)
		}

		directory := slack.NewDirectory(transport.API())

		client := team.NewClient(cfg, transport, directory, team.DefaultReconnectPolicy(), app.logger)
		client.SetRecorder(app.metrics())
		return client, nil
	}

	supervisor := team.NewSupervisor(factory, app.logger)
	supervisor.SetRecorder(app.metrics())

	if err := supervisor.SetSink(app.pipeline); err != nil {
		return err
	}

	configs := make([]team.Config, 0, len(app.config.Teams))
	for _, name := range app.config.TeamNames() {
		t := app.config.Teams[name]
		configs = append(configs, team.Config{
			Name:     name,
			AppToken: t.AppToken,
			BotToken: t.BotToken,
			Channels: append([]string(nil), t.Channels...),
		})
	}

	if err := supervisor.Initialize(configs); err != nil {
		return err
	}

	app.supervisor = supervisor

	app.logger.Info("team clients initialized",
		"teams", supervisor.TeamCount(),
	)

	return nil
}
