package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"
	"github.com/shipway/shipway/internal/manifest"
	"github.com/urfave/cli/v2"
)

func EnvCommand(logger *zerolog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "env",
		Usage: "Resolve the manifest's environment variables",
		Description: `Resolves every environment variable declared in the manifest: literal
values pass through, fromParameter entries are fetched from SSM Parameter
Store, and fromSecret entries from Secrets Manager.

Output is KEY=VALUE per line, suitable for an env file. With --export each
line is prefixed for shell eval.`,
		Flags: []cli.Flag{
			manifestFlag(),
			regionFlag(),
			&cli.BoolFlag{
				Name:  "export",
				Usage: "Prefix each line with 'export' for shell eval",
			},
		},
		Action: func(c *cli.Context) error {
			return envAction(c, logger)
		},
	}
}

func envAction(c *cli.Context, logger *zerolog.Logger) error {
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

	resolver := manifest.NewResolver(
		manifest.NewSSMParameterSource(ssm.NewFromConfig(cfg)),
		manifest.NewSecretsManagerSource(secretsmanager.NewFromConfig(cfg)),
	)

	resolved, err := resolver.ResolveEnv(c.Context, m)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(resolved))
	for key := range resolved {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if c.Bool("export") {
			fmt.Fprintf(os.Stdout, "export %s=%s\n", key, resolved[key])
		} else {
			fmt.Fprintf(os.Stdout, "%s=%s\n", key, resolved[key])
		}
	}

	logger.Info().Msgf("Resolved %d environment variables", len(resolved))
	return nil
}
