package commands

import (
	"github.com/rs/zerolog"
	"github.com/shipway/shipway/internal/services"
	"github.com/urfave/cli/v2"
)

func SetupRepoCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "setup-repo",
		Usage: "Create the ECR repository for the service",
		Description: `Creates the ECR repository with scan-on-push enabled. The call is
idempotent: an existing repository is described and reported as-is.

If the AWS account belongs to an organization, org-wide read permissions are
configured automatically.`,
		Flags: []cli.Flag{
			manifestFlag(),
			regionFlag(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Show what would be created without creating resources",
			},
		},
		Action: func(c *cli.Context) error {
			return setupRepoAction(c, logger)
		},
	}
}

func setupRepoAction(c *cli.Context, logger *zerolog.Logger) error {
	m, err := loadManifest(c)
	if err != nil {
		return err
	}
	region, err := resolveRegion(c, m)
	if err != nil {
		return err
	}

	if c.Bool("dry-run") {
		logger.Info().Msgf("DRY RUN: Would create ECR repository %s (region: %s)", m.Repository, region)
		logger.Info().Msg("DRY RUN: Would enable scan on push")
		logger.Info().Msg("DRY RUN: Would check for AWS Organization and set org-wide read permissions if applicable")
		return nil
	}

	cfg, err := loadAWSConfig(c, region)
	if err != nil {
		return err
	}

	ctx := c.Context
	ecrService := services.NewECRService(cfg)

	logger.Info().Msg("Checking if AWS account is in an organization...")
	orgID, err := ecrService.GetOrganizationID(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to check organization status (will skip org-wide permissions)")
		orgID = ""
	}

	logger.Info().Msgf("Creating repository: %s", m.Repository)
	repo, err := ecrService.EnsureRepository(ctx, m.Repository)
	if err != nil {
		return err
	}
	logger.Info().Msgf("  ✓ Repository: %s", repo.Name)
	logger.Info().Msgf("    ARN: %s", repo.ARN)
	logger.Info().Msgf("    URI: %s", repo.URI)

	if orgID != "" {
		logger.Info().Msg("  Setting org-wide read permissions...")
		if err := ecrService.SetRepositoryPolicy(ctx, m.Repository, orgID); err != nil {
			logger.Warn().Err(err).Msg("    Failed to set org-wide policy (repository still created)")
		} else {
			logger.Info().Msg("  ✓ Org-wide read permissions configured")
		}
	}

	return nil
}
