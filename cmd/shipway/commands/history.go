package commands

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/shipway/shipway/internal/dao/releasedao"
	"github.com/shipway/shipway/internal/di"
	"github.com/urfave/cli/v2"
)

func HistoryCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List release history from the history table",
		Description: `Lists release records for a repository and environment. Without --repo it
shows the latest release of every repository in the environment.

Examples:
  # Latest release per repository in prod
  shipway history --env prod

  # Full history for one repository
  shipway history --env prod --repo name-tracker`,
		Flags: []cli.Flag{
			regionFlag(),
			envFlag(),
			&cli.StringFlag{
				Name:    "repo",
				Aliases: []string{"r"},
				Usage:   "Repository to list history for",
			},
		},
		Action: func(c *cli.Context) error {
			return historyAction(c, logger)
		},
	}
}

func historyAction(c *cli.Context, logger *zerolog.Logger) error {
	env := c.String("env")
	container, err := di.New(env, di.WithRegion(c.String("region")))
	if err != nil {
		return err
	}
	dao := di.MustGet[*releasedao.DAO](container)

	var records []releasedao.Record
	if repo := c.String("repo"); repo != "" {
		records, err = dao.QueryByRepoEnv(c.Context, repo, env)
	} else {
		records, err = dao.QueryLatestReleases(c.Context, env)
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		logger.Info().Msgf("No releases found for env %s", env)
		return nil
	}

	for _, r := range records {
		event := logger.Info().
			Str("status", string(r.Status)).
			Str("image", r.ImageURI).
			Time("created", time.Unix(r.CreatedAt, 0).UTC())
		if r.ErrorMsg != nil {
			event = event.Str("error", *r.ErrorMsg)
		}
		event.Msgf("%s", r.GetID())
	}
	return nil
}
