package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shipway/shipway/internal/docker"
	"github.com/shipway/shipway/internal/imageref"
	"github.com/shipway/shipway/internal/services"
	"github.com/urfave/cli/v2"
)

func PushCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "push",
		Usage: "Push the locally built image to the remote registry",
		Description: `Resolves the ECR repository (creating it with --create-repo), authenticates
the docker engine to the registry, tags the local image with the fully
qualified remote reference, and pushes it.`,
		Flags: []cli.Flag{
			manifestFlag(),
			regionFlag(),
			tagFlag(),
			&cli.BoolFlag{
				Name:  "create-repo",
				Usage: "Create the repository if it does not exist",
			},
		},
		Action: func(c *cli.Context) error {
			return pushAction(c, logger)
		},
	}
}

func pushAction(c *cli.Context, logger *zerolog.Logger) error {
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
	tag := c.String("tag")
	ecrService := services.NewECRService(cfg)

	accountID, err := ecrService.GetAccountID(ctx)
	if err != nil {
		return err
	}
	remote, err := imageref.Remote(accountID, region, m.Repository, tag)
	if err != nil {
		return err
	}

	var repo *services.RepositoryInfo
	if c.Bool("create-repo") {
		repo, err = ecrService.EnsureRepository(ctx, m.Repository)
	} else {
		repo, err = ecrService.DescribeRepository(ctx, m.Repository)
	}
	if err != nil {
		return err
	}
	if repo.URI != remote.Registry+"/"+remote.Repository {
		return fmt.Errorf("repository URI mismatch: registry reports %s, computed %s",
			repo.URI, remote.Registry+"/"+remote.Repository)
	}

	creds, err := ecrService.GetRegistryCredentials(ctx)
	if err != nil {
		return err
	}

	client := docker.NewClient(*logger)
	if err := client.Login(ctx, creds.Registry, creds.Username, creds.Password); err != nil {
		return err
	}
	if err := client.Tag(ctx, imageref.Local(m.Repository, tag), remote.String()); err != nil {
		return err
	}
	if err := client.Push(ctx, remote.String()); err != nil {
		return err
	}

	logger.Info().Msgf("Pushed image: %s", remote.String())
	return nil
}
