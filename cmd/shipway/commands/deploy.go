package commands

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shipway/shipway/internal/di"
	"github.com/shipway/shipway/internal/pipeline"
	"github.com/urfave/cli/v2"
)

func DeployCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "deploy",
		Usage: "Run the full pipeline: build, push, redeploy, verify",
		Description: `Builds the container image, ensures the ECR repository, authenticates and
pushes, forces a new deployment of the cluster service, waits for the rollout
to stabilize, and optionally verifies the service health endpoint.

Each run is recorded in the release history table (disable with --no-history).

Examples:
  # Deploy the manifest in the current directory
  shipway deploy --cluster apps --service name-tracker --env prod

  # Deploy a specific tag and verify the health endpoint afterwards
  shipway deploy --cluster apps --service name-tracker --tag v42 \
    --verify-url https://name-tracker.example.com

  # Show the plan without touching anything
  shipway deploy --cluster apps --service name-tracker --dry-run`,
		Flags: []cli.Flag{
			manifestFlag(),
			regionFlag(),
			tagFlag(),
			envFlag(),
			&cli.StringFlag{
				Name:     "cluster",
				Usage:    "ECS cluster name",
				Required: true,
				EnvVars:  []string{"SHIPWAY_CLUSTER"},
			},
			&cli.StringFlag{
				Name:     "service",
				Usage:    "ECS service name",
				Required: true,
				EnvVars:  []string{"SHIPWAY_SERVICE"},
			},
			&cli.StringFlag{
				Name:    "context",
				Aliases: []string{"c"},
				Usage:   "Build context directory",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:    "dockerfile",
				Aliases: []string{"f"},
				Usage:   "Dockerfile path relative to the build context",
			},
			&cli.BoolFlag{
				Name:  "create-repo",
				Usage: "Create the repository if it does not exist",
			},
			&cli.StringFlag{
				Name:  "verify-url",
				Usage: "Service base URL to probe after the rollout",
			},
			&cli.BoolFlag{
				Name:  "no-wait",
				Usage: "Skip waiting for the service to stabilize",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the service to stabilize",
				Value: 10 * time.Minute,
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record this release in the history table",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show what would be deployed without deploying",
			},
		},
		Action: func(c *cli.Context) error {
			return deployAction(c, logger)
		},
	}
}

func deployAction(c *cli.Context, logger *zerolog.Logger) error {
	m, err := loadManifest(c)
	if err != nil {
		return err
	}
	region, err := resolveRegion(c, m)
	if err != nil {
		return err
	}

	env := c.String("env")
	tag := c.String("tag")
	cluster := c.String("cluster")
	service := c.String("service")

	if c.Bool("dry-run") {
		logger.Info().Msg("DRY RUN: Would run the following pipeline:")
		logger.Info().Msgf("  1. Build %s:%s from %s", m.Repository, tag, c.String("context"))
		logger.Info().Msgf("  2. Ensure ECR repository %s in %s (create: %v)", m.Repository, region, c.Bool("create-repo"))
		logger.Info().Msgf("  3. Login, tag, and push to the account registry in %s", region)
		logger.Info().Msgf("  4. Force new deployment of %s/%s and wait for stability", cluster, service)
		if c.String("verify-url") != "" && m.HealthCheck.Enabled {
			logger.Info().Msgf("  5. Probe %s%s until healthy", c.String("verify-url"), m.HealthCheck.Path)
		}
		if !c.Bool("no-history") {
			logger.Info().Msgf("Release would be recorded for %s/%s", m.Repository, env)
		}
		return nil
	}

	container, err := di.New(env,
		di.WithRegion(region),
		di.WithDisableHistory(c.Bool("no-history")),
	)
	if err != nil {
		return err
	}
	p := di.MustGet[*pipeline.Pipeline](container)

	result, err := p.Run(c.Context, pipeline.Input{
		Manifest:    m,
		ContextDir:  c.String("context"),
		Dockerfile:  c.String("dockerfile"),
		Tag:         tag,
		Env:         env,
		Cluster:     cluster,
		Service:     service,
		CreateRepo:  c.Bool("create-repo"),
		Wait:        !c.Bool("no-wait"),
		WaitTimeout: c.Duration("timeout"),
		VerifyURL:   c.String("verify-url"),
	})
	if err != nil {
		return err
	}

	logger.Info().Msg("")
	logger.Info().Msg("========================================")
	logger.Info().Msg("Deploy Complete!")
	logger.Info().Msg("========================================")
	logger.Info().Msgf("Image:      %s", result.ImageURI)
	logger.Info().Msgf("Service:    %s/%s", cluster, service)
	if result.DeploymentID != "" {
		logger.Info().Msgf("Deployment: %s", result.DeploymentID)
	}
	if result.ReleaseID != "" {
		logger.Info().Msgf("Release:    %s", result.ReleaseID)
	}
	return nil
}
