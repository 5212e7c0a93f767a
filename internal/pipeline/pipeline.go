// Package pipeline runs the deploy sequence: build the image, ensure the
// remote repository, authenticate and push, force a service redeploy, wait
// for stability, and verify health. Steps run sequentially and fail fast.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"github.com/shipway/shipway/internal/dao/releasedao"
	"github.com/shipway/shipway/internal/docker"
	apperrors "github.com/shipway/shipway/internal/errors"
	"github.com/shipway/shipway/internal/imageref"
	"github.com/shipway/shipway/internal/manifest"
	"github.com/shipway/shipway/internal/services"
)

// Input is everything one pipeline run needs.
type Input struct {
	Manifest    *manifest.Manifest
	ContextDir  string
	Dockerfile  string
	Tag         string
	Env         string // dev, staging, prod
	Cluster     string
	Service     string
	CreateRepo  bool // ensure the repository exists instead of requiring it
	Wait        bool
	WaitTimeout time.Duration
	VerifyURL   string // service base URL for the health probe; empty skips it
}

// Result reports what a successful run produced.
type Result struct {
	ReleaseID    releasedao.ID
	ImageURI     string
	DeploymentID string
}

// Engine is the subset of the docker client the pipeline drives.
type Engine interface {
	Build(ctx context.Context, opts docker.BuildOptions) error
	Tag(ctx context.Context, src, dst string) error
	Push(ctx context.Context, ref string) error
	Login(ctx context.Context, registry, username, password string) error
}

// Registry resolves the remote repository and its credentials.
type Registry interface {
	GetAccountID(ctx context.Context) (string, error)
	EnsureRepository(ctx context.Context, name string) (*services.RepositoryInfo, error)
	DescribeRepository(ctx context.Context, name string) (*services.RepositoryInfo, error)
	GetRegistryCredentials(ctx context.Context) (*services.RegistryCredentials, error)
}

// Orchestrator forces the service redeploy and observes the rollout.
type Orchestrator interface {
	ForceRedeploy(ctx context.Context, cluster, service string) (string, error)
	WaitForStable(ctx context.Context, cluster, service string, timeout time.Duration) error
}

// Prober verifies the service health endpoint.
type Prober interface {
	Probe(ctx context.Context, baseURL string, hc manifest.HealthCheck) error
}

// History records release lifecycle transitions.
type History interface {
	Create(ctx context.Context, input releasedao.CreateInput) (releasedao.Record, error)
	UpdateStatus(ctx context.Context, input releasedao.UpdateInput) error
}

// Pipeline wires the services the deploy sequence invokes. History may be
// nil, which disables release records.
type Pipeline struct {
	Docker  Engine
	ECR     Registry
	ECS     Orchestrator
	Health  Prober
	History History
	Region  string
	Logger  zerolog.Logger
}

// Run executes the full deploy sequence. The first failing step aborts the
// run; the release record, when history is enabled, is marked FAILED with
// the step's error before returning.
func (p *Pipeline) Run(ctx context.Context, input Input) (*Result, error) {
	m := input.Manifest
	logger := p.Logger.With().
		Str("repo", m.Repository).
		Str("env", input.Env).
		Str("tag", input.Tag).
		Logger()

	// Resolve account and the remote reference up front so every later step
	// works from the same repository URI.
	accountID, err := p.ECR.GetAccountID(ctx)
	if err != nil {
		return nil, err
	}
	remote, err := imageref.Remote(accountID, p.Region, m.Repository, input.Tag)
	if err != nil {
		return nil, err
	}

	sk := ksuid.New().String()
	pk := releasedao.NewPK(m.Repository, input.Env)
	releaseID := releasedao.NewID(pk, sk)

	if p.History != nil {
		if _, err := p.History.Create(ctx, releasedao.CreateInput{
			Repo:     m.Repository,
			Env:      input.Env,
			SK:       sk,
			Cluster:  input.Cluster,
			Service:  input.Service,
			ImageURI: remote.String(),
			Tag:      input.Tag,
		}); err != nil {
			return nil, err
		}
		if err := p.updateStatus(ctx, pk, sk, releasedao.StatusInProgress, nil, nil); err != nil {
			return nil, err
		}
	}

	result, err := p.run(ctx, input, remote, logger)
	if err != nil {
		if p.History != nil {
			msg := err.Error()
			if updateErr := p.updateStatus(ctx, pk, sk, releasedao.StatusFailed, nil, &msg); updateErr != nil {
				logger.Warn().Err(updateErr).Msg("failed to mark release as failed")
			}
		}
		return nil, err
	}

	if p.History != nil {
		var deploymentID *string
		if result.DeploymentID != "" {
			deploymentID = &result.DeploymentID
		}
		if err := p.updateStatus(ctx, pk, sk, releasedao.StatusSuccess, deploymentID, nil); err != nil {
			logger.Warn().Err(err).Msg("failed to mark release as succeeded")
		}
	}

	result.ReleaseID = releaseID
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, input Input, remote imageref.Ref, logger zerolog.Logger) (*Result, error) {
	m := input.Manifest
	local := imageref.Local(m.Repository, input.Tag)

	// Step 1: build the image locally.
	if err := p.Docker.Build(ctx, docker.BuildOptions{
		ContextDir: input.ContextDir,
		Dockerfile: input.Dockerfile,
		Tag:        local,
	}); err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	// Step 2: resolve or create the remote repository.
	var repo *services.RepositoryInfo
	var err error
	if input.CreateRepo {
		repo, err = p.ECR.EnsureRepository(ctx, m.Repository)
	} else {
		repo, err = p.ECR.DescribeRepository(ctx, m.Repository)
	}
	if err != nil {
		return nil, fmt.Errorf("ensure repository: %w", err)
	}

	// The URI the registry reports must match the reference every later step
	// uses. A mismatch means the account, region, or name diverged.
	if repo.URI != remote.Registry+"/"+remote.Repository {
		return nil, fmt.Errorf("%w: registry reports %s, pipeline computed %s",
			apperrors.ErrRepositoryURIChanged, repo.URI, remote.Registry+"/"+remote.Repository)
	}

	// Step 3: authenticate the engine, tag, and push.
	creds, err := p.ECR.GetRegistryCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("registry login: %w", err)
	}
	if err := p.Docker.Login(ctx, creds.Registry, creds.Username, creds.Password); err != nil {
		return nil, fmt.Errorf("registry login: %w", err)
	}
	if err := p.Docker.Tag(ctx, local, remote.String()); err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	if err := p.Docker.Push(ctx, remote.String()); err != nil {
		return nil, fmt.Errorf("push: %w", err)
	}

	// Step 4: force the service to redeploy from the new image.
	deploymentID, err := p.ECS.ForceRedeploy(ctx, input.Cluster, input.Service)
	if err != nil {
		return nil, fmt.Errorf("redeploy: %w", err)
	}

	if input.Wait {
		if err := p.ECS.WaitForStable(ctx, input.Cluster, input.Service, input.WaitTimeout); err != nil {
			return nil, fmt.Errorf("wait for stable: %w", err)
		}
	}

	// Step 5: verify the health endpoint when a URL is known and the
	// manifest enables health checks.
	if input.VerifyURL != "" && m.HealthCheck.Enabled {
		if err := p.Health.Probe(ctx, input.VerifyURL, m.HealthCheck); err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
	}

	logger.Info().Str("image", remote.String()).Str("deployment_id", deploymentID).Msg("deploy complete")
	return &Result{
		ImageURI:     remote.String(),
		DeploymentID: deploymentID,
	}, nil
}

func (p *Pipeline) updateStatus(ctx context.Context, pk releasedao.PK, sk string, status releasedao.Status, deploymentID, errorMsg *string) error {
	return p.History.UpdateStatus(ctx, releasedao.UpdateInput{
		PK:           pk,
		SK:           sk,
		Status:       &status,
		DeploymentID: deploymentID,
		ErrorMsg:     errorMsg,
	})
}
