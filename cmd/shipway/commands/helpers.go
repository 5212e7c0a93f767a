package commands

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/shipway/shipway/internal/manifest"
	"github.com/urfave/cli/v2"
)

// loadManifest loads and validates the manifest named by the --manifest flag.
func loadManifest(c *cli.Context) (*manifest.Manifest, error) {
	path := c.String("manifest")
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// resolveRegion picks the region from the --region flag, falling back to the
// manifest. m may be nil.
func resolveRegion(c *cli.Context, m *manifest.Manifest) (string, error) {
	if region := c.String("region"); region != "" {
		return region, nil
	}
	if m != nil && m.Region != "" {
		return m.Region, nil
	}
	return "", fmt.Errorf("region is required: pass --region or set region in the manifest")
}

// loadAWSConfig loads the default AWS config pinned to a region.
func loadAWSConfig(c *cli.Context, region string) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(c.Context, config.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return cfg, nil
}

func manifestFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "manifest",
		Aliases: []string{"m"},
		Usage:   "Path to the service manifest",
		Value:   manifest.DefaultPath,
		EnvVars: []string{"SHIPWAY_MANIFEST"},
	}
}

func regionFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "region",
		Usage:   "AWS region (overrides the manifest)",
		EnvVars: []string{"AWS_REGION"},
	}
}

func tagFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "tag",
		Aliases: []string{"t"},
		Usage:   "Image tag",
		Value:   "latest",
		EnvVars: []string{"SHIPWAY_TAG"},
	}
}

func envFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "env",
		Aliases: []string{"e"},
		Usage:   "Environment name (dev, staging, prod)",
		Value:   "dev",
		EnvVars: []string{"SHIPWAY_ENV"},
	}
}
