package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/slacktail/slacktail/internal/app"
	"github.com/slacktail/slacktail/internal/infrastructure/config"
)

// Version information, injected at build time via ldflags.
var (
	Version   = "dev"
	Build     = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "slacktail",
	Short: "Tail Slack channels from multiple workspaces to stdout",
	Long: `slacktail connects to one or more Slack workspaces over Socket Mode and
prints every message from the configured channels to stdout as it arrives.

Configuration is read from ./.env.json (override with CONFIG_PATH); there
are no arguments. Message lines go to stdout, diagnostics to stderr.`,
	Version:       fmt.Sprintf("%s (build %s, %s)", Version, Build, BuildTime),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func run(ctx context.Context) error {
	application, err := app.New(config.Path(), Version)
	if err != nil {
		return err
	}
	defer func() { _ = application.Shutdown() }()

	return application.Run(ctx)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
