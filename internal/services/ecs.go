package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/rs/zerolog"
	apperrors "github.com/shipway/shipway/internal/errors"
	"golang.org/x/time/rate"
)

// ECSAPI is the subset of the ECS client used by ECSService.
type ECSAPI interface {
	UpdateService(ctx context.Context, params *ecs.UpdateServiceInput, optFns ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error)
	DescribeServices(ctx context.Context, params *ecs.DescribeServicesInput, optFns ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error)
}

// ECSService instructs the orchestrator to redeploy a service and observes
// the rollout until it stabilizes.
type ECSService struct {
	client  ECSAPI
	logger  zerolog.Logger
	limiter *rate.Limiter
}

// pollInterval bounds how often the rollout is polled during waits.
const pollInterval = 5 * time.Second

// NewECSService creates an ECSService from an AWS config.
func NewECSService(cfg aws.Config, logger zerolog.Logger) *ECSService {
	return NewECSServiceWithClient(ecs.NewFromConfig(cfg), logger)
}

// NewECSServiceWithClient creates an ECSService with an explicit client,
// used in tests.
func NewECSServiceWithClient(client ECSAPI, logger zerolog.Logger) *ECSService {
	return &ECSService{
		client:  client,
		logger:  logger.With().Str("service", "ecs").Logger(),
		limiter: rate.NewLimiter(rate.Every(pollInterval), 1),
	}
}

// ForceRedeploy instructs the cluster to replace the service's running tasks
// with new ones pulled from the freshly pushed image. Returns the ID of the
// deployment the orchestrator created.
func (s *ECSService) ForceRedeploy(ctx context.Context, cluster, service string) (string, error) {
	s.logger.Info().Str("cluster", cluster).Str("ecs_service", service).Msg("forcing new deployment")

	output, err := s.client.UpdateService(ctx, &ecs.UpdateServiceInput{
		Cluster:            aws.String(cluster),
		Service:            aws.String(service),
		ForceNewDeployment: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to force new deployment of %s/%s: %w", cluster, service, err)
	}

	for _, deployment := range output.Service.Deployments {
		if aws.ToString(deployment.Status) == "PRIMARY" {
			return aws.ToString(deployment.Id), nil
		}
	}
	return "", nil
}

// WaitForStable polls the service until the rollout completes: a single
// PRIMARY deployment with runningCount == desiredCount. Polls are
// rate-limited; the wait is bounded by timeout.
func (s *ECSService) WaitForStable(ctx context.Context, cluster, service string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger := s.logger.With().Str("cluster", cluster).Str("ecs_service", service).Logger()
	logger.Info().Dur("timeout", timeout).Msg("waiting for service to stabilize")

	for {
		// The limiter fails either on cancellation or when the next poll
		// would land past the deadline; both mean the wait is over.
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrStabilityTimeout, err)
		}

		stable, err := s.describeRollout(ctx, cluster, service, logger)
		if err != nil {
			return err
		}
		if stable {
			logger.Info().Msg("service is stable")
			return nil
		}
	}
}

func (s *ECSService) describeRollout(ctx context.Context, cluster, service string, logger zerolog.Logger) (bool, error) {
	output, err := s.client.DescribeServices(ctx, &ecs.DescribeServicesInput{
		Cluster:  aws.String(cluster),
		Services: []string{service},
	})
	if err != nil {
		return false, fmt.Errorf("failed to describe service %s/%s: %w", cluster, service, err)
	}
	if len(output.Services) == 0 {
		return false, fmt.Errorf("%w: %s/%s", apperrors.ErrServiceNotFound, cluster, service)
	}

	svc := output.Services[0]
	var primary *types.Deployment
	for i := range svc.Deployments {
		if aws.ToString(svc.Deployments[i].Status) == "PRIMARY" {
			primary = &svc.Deployments[i]
			break
		}
	}
	if primary == nil {
		return false, fmt.Errorf("service %s/%s has no primary deployment", cluster, service)
	}

	if primary.RolloutState == types.DeploymentRolloutStateFailed {
		return false, fmt.Errorf("%w: %s", apperrors.ErrDeploymentFailed, aws.ToString(primary.RolloutStateReason))
	}

	logger.Info().
		Int32("running", primary.RunningCount).
		Int32("desired", primary.DesiredCount).
		Int("deployments", len(svc.Deployments)).
		Msg("rollout in progress")

	stable := len(svc.Deployments) == 1 &&
		primary.RunningCount == primary.DesiredCount &&
		primary.RolloutState != types.DeploymentRolloutStateInProgress
	return stable, nil
}
