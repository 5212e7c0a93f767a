package commands

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shipway/shipway/internal/services"
	"github.com/urfave/cli/v2"
)

func ReleaseCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "release",
		Usage: "Force the cluster service to redeploy from the pushed image",
		Flags: []cli.Flag{
			manifestFlag(),
			regionFlag(),
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
			&cli.BoolFlag{
				Name:  "no-wait",
				Usage: "Skip waiting for the service to stabilize",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the service to stabilize",
				Value: 10 * time.Minute,
			},
		},
		Action: func(c *cli.Context) error {
			return releaseAction(c, logger)
		},
	}
}

func releaseAction(c *cli.Context, logger *zerolog.Logger) error {
	m, err := loadManifest(c)
	if err != nil {
		return err
	}
	region, err := resolveRegion(c, m)
	if err != nil {
		return err
	}
	cfg, err := loadAWSConfig(c, region)
	if err != nil {
		return err
	}

	ctx := c.Context
	cluster := c.String("cluster")
	service := c.String("service")

	ecsService := services.NewECSService(cfg, *logger)
	deploymentID, err := ecsService.ForceRedeploy(ctx, cluster, service)
	if err != nil {
		return err
	}
	logger.Info().Msgf("Deployment started: %s", deploymentID)

	if c.Bool("no-wait") {
		return nil
	}
	if err := ecsService.WaitForStable(ctx, cluster, service, c.Duration("timeout")); err != nil {
		return err
	}

	logger.Info().Msgf("Service %s/%s is stable", cluster, service)
	return nil
}
