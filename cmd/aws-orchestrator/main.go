package main

import (
	"context"
	"os"

	"github.com/catalogops/aws-orchestrator/cmd/aws-orchestrator/commands"
	"github.com/catalogops/aws-orchestrator/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "aws-orchestrator",
		Usage: "Deployment orchestration for portal catalog entities",
		Description: `Orchestrates AWS deployments for catalog-registered entities.

This tool provides commands for:
  - Configuring per-entity build parameters and source config
  - Triggering deploy, update and teardown builds
  - Inspecting builds and the build project
  - Listing available deployment accounts and regions
  - Publishing entity assets to the asset bucket`,
		Commands: []*cli.Command{
			commands.ConfigureCommand(),
			commands.TriggerCommand(),
			commands.BuildsCommand(),
			commands.ProjectCommand(),
			commands.AccountsCommand(),
			commands.RegionsCommand(),
			commands.SyncAssetsCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
