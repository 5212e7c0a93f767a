package main

import (
	"context"
	"os"

	"github.com/shipway/shipway/cmd/shipway/commands"
	"github.com/shipway/shipway/internal/di"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := di.ProvideLogger()
	ctx := logger.WithContext(context.Background())

	app := &cli.App{
		Name:  "shipway",
		Usage: "Container build, push, and redeploy pipeline",
		Description: `A CLI that takes a service from source checkout to running redeployment.

This tool provides commands for:
  - Building the container image from a local build context
  - Pushing the image to the account's ECR registry
  - Forcing the cluster service to redeploy and waiting for stability
  - Validating the service manifest and verifying the health endpoint`,
		Commands: []*cli.Command{
			commands.DeployCommand(&logger),
			commands.BuildCommand(&logger),
			commands.PushCommand(&logger),
			commands.ReleaseCommand(&logger),
			commands.VerifyCommand(&logger),
			commands.ValidateCommand(&logger),
			commands.EnvCommand(&logger),
			commands.HistoryCommand(&logger),
			commands.SetupRepoCommand(&logger),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Error().Err(err).Msg("Application error")
		os.Exit(1)
	}
}
