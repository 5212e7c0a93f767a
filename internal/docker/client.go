// Package docker wraps the local docker engine CLI for the build, tag, login,
// and push steps of the pipeline. The engine owns build orchestration and the
// registry push protocol; this package only invokes it.
package docker

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Client invokes the docker engine binary.
type Client struct {
	runner Runner
	bin    string
	logger zerolog.Logger
}

// NewClient creates a Client that shells out to "docker" on PATH.
func NewClient(logger zerolog.Logger) *Client {
	return &Client{
		runner: ExecRunner{},
		bin:    "docker",
		logger: logger.With().Str("service", "docker").Logger(),
	}
}

// NewClientWithRunner creates a Client with a custom runner, used in tests.
func NewClientWithRunner(runner Runner, logger zerolog.Logger) *Client {
	return &Client{
		runner: runner,
		bin:    "docker",
		logger: logger.With().Str("service", "docker").Logger(),
	}
}

// BuildOptions describes a docker build invocation.
type BuildOptions struct {
	ContextDir string
	Dockerfile string // relative to ContextDir; engine default when empty
	Tag        string // local {repo}:{tag}
	BuildArgs  map[string]string
}

// Build builds an image from the context directory and tags it locally.
// Engine output streams to the process's stdout/stderr.
func (c *Client) Build(ctx context.Context, opts BuildOptions) error {
	args := []string{"build", "-t", opts.Tag}
	if opts.Dockerfile != "" {
		args = append(args, "-f", opts.Dockerfile)
	}
	for _, key := range sortedKeys(opts.BuildArgs) {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", key, opts.BuildArgs[key]))
	}
	args = append(args, opts.ContextDir)

	c.logger.Info().Str("tag", opts.Tag).Str("context", opts.ContextDir).Msg("building image")
	return c.runner.Run(ctx, Command{
		Name:   c.bin,
		Args:   args,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
}

// Tag applies the remote reference to the locally built image.
func (c *Client) Tag(ctx context.Context, src, dst string) error {
	c.logger.Info().Str("src", src).Str("dst", dst).Msg("tagging image")
	return c.runner.Run(ctx, Command{
		Name:   c.bin,
		Args:   []string{"tag", src, dst},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
}

// Push transfers the tagged image to its registry.
func (c *Client) Push(ctx context.Context, ref string) error {
	c.logger.Info().Str("ref", ref).Msg("pushing image")
	return c.runner.Run(ctx, Command{
		Name:   c.bin,
		Args:   []string{"push", ref},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
}

// Login authenticates the engine to a registry. The password is fed over
// stdin so it never appears in the process list.
func (c *Client) Login(ctx context.Context, registry, username, password string) error {
	c.logger.Info().Str("registry", registry).Str("username", username).Msg("logging in to registry")
	return c.runner.Run(ctx, Command{
		Name:   c.bin,
		Args:   []string{"login", "--username", username, "--password-stdin", registry},
		Stdin:  strings.NewReader(password),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
