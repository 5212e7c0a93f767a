package commands

import (
	"github.com/rs/zerolog"
	"github.com/shipway/shipway/internal/docker"
	"github.com/shipway/shipway/internal/imageref"
	"github.com/urfave/cli/v2"
)

func BuildCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Build the container image from the local build context",
		Flags: []cli.Flag{
			manifestFlag(),
			tagFlag(),
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
		},
		Action: func(c *cli.Context) error {
			return buildAction(c, logger)
		},
	}
}

func buildAction(c *cli.Context, logger *zerolog.Logger) error {
	m, err := loadManifest(c)
	if err != nil {
		return err
	}

	tag := c.String("tag")
	local := imageref.Local(m.Repository, tag)

	client := docker.NewClient(*logger)
	if err := client.Build(c.Context, docker.BuildOptions{
		ContextDir: c.String("context"),
		Dockerfile: c.String("dockerfile"),
		Tag:        local,
	}); err != nil {
		return err
	}

	logger.Info().Msgf("Built image: %s", local)
	return nil
}
