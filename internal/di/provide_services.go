package di

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"
	"github.com/shipway/shipway/internal/dao/releasedao"
	"github.com/shipway/shipway/internal/docker"
	"github.com/shipway/shipway/internal/manifest"
	"github.com/shipway/shipway/internal/pipeline"
	"github.com/shipway/shipway/internal/services"
)

func ProvideDockerClient(logger zerolog.Logger) *docker.Client {
	return docker.NewClient(logger)
}

func ProvideECRService(config aws.Config) *services.ECRService {
	return services.NewECRService(config)
}

func ProvideECSService(config aws.Config, logger zerolog.Logger) *services.ECSService {
	return services.NewECSService(config, logger)
}

func ProvideHealthService(logger zerolog.Logger) *services.HealthService {
	return services.NewHealthService(logger)
}

func ProvideResolver(ssmClient *ssm.Client, smClient *secretsmanager.Client) *manifest.Resolver {
	return manifest.NewResolver(
		manifest.NewSSMParameterSource(ssmClient),
		manifest.NewSecretsManagerSource(smClient),
	)
}

func ProvidePipeline(
	dockerClient *docker.Client,
	ecrService *services.ECRService,
	ecsService *services.ECSService,
	healthService *services.HealthService,
	dao *releasedao.DAO,
	config aws.Config,
	disableHistory DisableHistory,
	logger zerolog.Logger,
) *pipeline.Pipeline {
	p := &pipeline.Pipeline{
		Docker: dockerClient,
		ECR:    ecrService,
		ECS:    ecsService,
		Health: healthService,
		Region: config.Region,
		Logger: logger.With().Str("service", "pipeline").Logger(),
	}
	if !disableHistory {
		p.History = dao
	}
	return p
}
