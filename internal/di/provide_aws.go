package di

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

func ProvideContext() context.Context {
	return context.Background()
}

func ProvideAWSConfig(ctx context.Context, region Region) (aws.Config, error) {
	if region != "" {
		return config.LoadDefaultConfig(ctx, config.WithRegion(string(region)))
	}
	return config.LoadDefaultConfig(ctx)
}

func ProvideDynamoDB(config aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(config)
}

func ProvideSSMClient(config aws.Config) *ssm.Client {
	return ssm.NewFromConfig(config)
}

func ProvideSecretsManagerClient(config aws.Config) *secretsmanager.Client {
	return secretsmanager.NewFromConfig(config)
}
