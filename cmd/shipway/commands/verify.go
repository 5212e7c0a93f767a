package commands

import (
	"github.com/rs/zerolog"
	"github.com/shipway/shipway/internal/services"
	"github.com/urfave/cli/v2"
)

func VerifyCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Probe the deployed service's health endpoint",
		Description: `Probes the health endpoint declared in the manifest using its timing
parameters: initial delay, interval, per-request timeout, and failure
threshold. Exits non-zero if the threshold is reached without a 2xx.`,
		Flags: []cli.Flag{
			manifestFlag(),
			&cli.StringFlag{
				Name:     "url",
				Usage:    "Service base URL (e.g. https://name-tracker.example.com)",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			return verifyAction(c, logger)
		},
	}
}

func verifyAction(c *cli.Context, logger *zerolog.Logger) error {
	m, err := loadManifest(c)
	if err != nil {
		return err
	}

	healthService := services.NewHealthService(*logger)
	if err := healthService.Probe(c.Context, c.String("url"), m.HealthCheck); err != nil {
		return err
	}

	logger.Info().Msgf("Service %s is healthy", m.Name)
	return nil
}
