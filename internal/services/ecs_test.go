package services

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	apperrors "github.com/shipway/shipway/internal/errors"
)

type fakeECSAPI struct {
	updateInput   *ecs.UpdateServiceInput
	updateOutput  *ecs.UpdateServiceOutput
	updateErr     error
	describeCalls int
	describeFn    func(call int) (*ecs.DescribeServicesOutput, error)
}

func (f *fakeECSAPI) UpdateService(_ context.Context, params *ecs.UpdateServiceInput, _ ...func(*ecs.Options)) (*ecs.UpdateServiceOutput, error) {
	f.updateInput = params
	return f.updateOutput, f.updateErr
}

func (f *fakeECSAPI) DescribeServices(_ context.Context, _ *ecs.DescribeServicesInput, _ ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error) {
	f.describeCalls++
	return f.describeFn(f.describeCalls)
}

func newTestECSService(api ECSAPI) *ECSService {
	svc := NewECSServiceWithClient(api, zerolog.Nop())
	svc.limiter = rate.NewLimiter(rate.Inf, 1)
	return svc
}

func serviceWith(deployments ...types.Deployment) *ecs.DescribeServicesOutput {
	return &ecs.DescribeServicesOutput{
		Services: []types.Service{
			{Deployments: deployments},
		},
	}
}

func TestForceRedeploy(t *testing.T) {
	api := &fakeECSAPI{
		updateOutput: &ecs.UpdateServiceOutput{
			Service: &types.Service{
				Deployments: []types.Deployment{
					{Id: aws.String("ecs-svc/1"), Status: aws.String("PRIMARY")},
					{Id: aws.String("ecs-svc/0"), Status: aws.String("ACTIVE")},
				},
			},
		},
	}
	svc := newTestECSService(api)

	deploymentID, err := svc.ForceRedeploy(context.Background(), "apps", "name-tracker")
	require.NoError(t, err)
	assert.Equal(t, "ecs-svc/1", deploymentID)

	require.NotNil(t, api.updateInput)
	assert.Equal(t, "apps", aws.ToString(api.updateInput.Cluster))
	assert.Equal(t, "name-tracker", aws.ToString(api.updateInput.Service))
	assert.True(t, api.updateInput.ForceNewDeployment)
}

func TestWaitForStableSucceedsAfterRollout(t *testing.T) {
	api := &fakeECSAPI{
		describeFn: func(call int) (*ecs.DescribeServicesOutput, error) {
			if call < 3 {
				return serviceWith(
					types.Deployment{
						Status:       aws.String("PRIMARY"),
						RunningCount: 0,
						DesiredCount: 1,
						RolloutState: types.DeploymentRolloutStateInProgress,
					},
					types.Deployment{Status: aws.String("ACTIVE")},
				), nil
			}
			return serviceWith(types.Deployment{
				Status:       aws.String("PRIMARY"),
				RunningCount: 1,
				DesiredCount: 1,
				RolloutState: types.DeploymentRolloutStateCompleted,
			}), nil
		},
	}
	svc := newTestECSService(api)

	err := svc.WaitForStable(context.Background(), "apps", "name-tracker", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 3, api.describeCalls)
}

func TestWaitForStableRolloutFailed(t *testing.T) {
	api := &fakeECSAPI{
		describeFn: func(int) (*ecs.DescribeServicesOutput, error) {
			return serviceWith(types.Deployment{
				Status:             aws.String("PRIMARY"),
				RolloutState:       types.DeploymentRolloutStateFailed,
				RolloutStateReason: aws.String("tasks failed to start"),
			}), nil
		},
	}
	svc := newTestECSService(api)

	err := svc.WaitForStable(context.Background(), "apps", "name-tracker", time.Minute)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrDeploymentFailed)
	assert.Contains(t, err.Error(), "tasks failed to start")
}

func TestWaitForStableServiceMissing(t *testing.T) {
	api := &fakeECSAPI{
		describeFn: func(int) (*ecs.DescribeServicesOutput, error) {
			return &ecs.DescribeServicesOutput{}, nil
		},
	}
	svc := newTestECSService(api)

	err := svc.WaitForStable(context.Background(), "apps", "missing", time.Minute)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrServiceNotFound)
}

func TestWaitForStableTimeout(t *testing.T) {
	api := &fakeECSAPI{
		describeFn: func(int) (*ecs.DescribeServicesOutput, error) {
			return serviceWith(types.Deployment{
				Status:       aws.String("PRIMARY"),
				RunningCount: 0,
				DesiredCount: 1,
				RolloutState: types.DeploymentRolloutStateInProgress,
			}), nil
		},
	}
	svc := NewECSServiceWithClient(api, zerolog.Nop())
	svc.limiter = rate.NewLimiter(rate.Every(10*time.Millisecond), 1)

	err := svc.WaitForStable(context.Background(), "apps", "name-tracker", 50*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStabilityTimeout)
}
