package commands

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/shipway/shipway/internal/manifest"
	"github.com/urfave/cli/v2"
)

func ValidateCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check the service manifest for consistency",
		Description: `Static checks on the manifest: exactly one persistent disk with an absolute
mount path and positive size, coherent health check parameters, unique and
well-formed environment variable keys, and a single source per variable.`,
		Flags: []cli.Flag{
			manifestFlag(),
		},
		Action: func(c *cli.Context) error {
			return validateAction(c, logger)
		},
	}
}

func validateAction(c *cli.Context, logger *zerolog.Logger) error {
	m, err := manifest.Load(c.String("manifest"))
	if err != nil {
		return err
	}

	if err := m.Validate(); err != nil {
		var verr *manifest.ValidationError
		if errors.As(err, &verr) {
			for _, problem := range verr.Problems {
				logger.Error().Msgf("  ✗ %s", problem)
			}
		}
		return err
	}

	logger.Info().Msgf("Manifest is valid: %s", m.Name)
	logger.Info().Msgf("  Repository:   %s", m.Repository)
	if m.HealthCheck.Enabled {
		logger.Info().Msgf("  Health check: %s every %ds", m.HealthCheck.Path, m.HealthCheck.IntervalSeconds)
	}
	for _, d := range m.Disks {
		logger.Info().Msgf("  Disk:         %s at %s (%d GB)", d.Name, d.MountPath, d.SizeGB)
	}
	logger.Info().Msgf("  Env vars:     %d", len(m.EnvVars))
	return nil
}
