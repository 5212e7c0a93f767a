package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	apperrors "github.com/shipway/shipway/internal/errors"
)

// ECRService manages the remote image repository: existence, access policy,
// and registry credentials for the docker engine.
type ECRService struct {
	client    *ecr.Client
	stsClient *sts.Client
	orgClient *organizations.Client
	region    string
}

// NewECRService creates an ECRService from an AWS config.
func NewECRService(cfg aws.Config) *ECRService {
	return &ECRService{
		client:    ecr.NewFromConfig(cfg),
		stsClient: sts.NewFromConfig(cfg),
		orgClient: organizations.NewFromConfig(cfg),
		region:    cfg.Region,
	}
}

// RepositoryInfo describes a resolved ECR repository.
type RepositoryInfo struct {
	Name string
	ARN  string
	URI  string
}

// EnsureRepository creates the repository if it does not exist, with
// scan-on-push enabled. The call is idempotent: on
// RepositoryAlreadyExistsException the existing repository is described and
// returned.
func (s *ECRService) EnsureRepository(ctx context.Context, repositoryName string) (*RepositoryInfo, error) {
	input := &ecr.CreateRepositoryInput{
		RepositoryName: aws.String(repositoryName),
		ImageScanningConfiguration: &types.ImageScanningConfiguration{
			ScanOnPush: true,
		},
		Tags: []types.Tag{
			{
				Key:   aws.String("ManagedBy"),
				Value: aws.String("shipway"),
			},
		},
	}

	output, err := s.client.CreateRepository(ctx, input)
	if err != nil {
		var exists *types.RepositoryAlreadyExistsException
		if errors.As(err, &exists) {
			return s.DescribeRepository(ctx, repositoryName)
		}
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	return &RepositoryInfo{
		Name: aws.ToString(output.Repository.RepositoryName),
		ARN:  aws.ToString(output.Repository.RepositoryArn),
		URI:  aws.ToString(output.Repository.RepositoryUri),
	}, nil
}

// DescribeRepository resolves an existing repository by name.
func (s *ECRService) DescribeRepository(ctx context.Context, repositoryName string) (*RepositoryInfo, error) {
	output, err := s.client.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{
		RepositoryNames: []string{repositoryName},
	})
	if err != nil {
		var notFound *types.RepositoryNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("repository %s: %w", repositoryName, err)
		}
		return nil, fmt.Errorf("failed to describe repository %s: %w", repositoryName, err)
	}
	if len(output.Repositories) == 0 {
		return nil, fmt.Errorf("repository %s not found in describe output", repositoryName)
	}

	repo := output.Repositories[0]
	return &RepositoryInfo{
		Name: aws.ToString(repo.RepositoryName),
		ARN:  aws.ToString(repo.RepositoryArn),
		URI:  aws.ToString(repo.RepositoryUri),
	}, nil
}

// RegistryCredentials holds decoded docker login credentials for a registry.
type RegistryCredentials struct {
	Username string
	Password string
	Registry string // registry hostname without scheme
}

// GetRegistryCredentials fetches an authorization token for the account's
// default registry and decodes it into docker login credentials.
func (s *ECRService) GetRegistryCredentials(ctx context.Context) (*RegistryCredentials, error) {
	output, err := s.client.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization token: %w", err)
	}
	if len(output.AuthorizationData) == 0 {
		return nil, apperrors.ErrMalformedAuthToken
	}

	data := output.AuthorizationData[0]
	return decodeAuthorizationData(aws.ToString(data.AuthorizationToken), aws.ToString(data.ProxyEndpoint))
}

// decodeAuthorizationData decodes the base64 "user:password" token the
// registry hands out and strips the scheme from the proxy endpoint.
func decodeAuthorizationData(token, proxyEndpoint string) (*RegistryCredentials, error) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedAuthToken, err)
	}

	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok || username == "" || password == "" {
		return nil, apperrors.ErrMalformedAuthToken
	}

	registry := strings.TrimPrefix(proxyEndpoint, "https://")
	if registry == "" {
		return nil, apperrors.ErrMalformedAuthToken
	}

	return &RegistryCredentials{
		Username: username,
		Password: password,
		Registry: registry,
	}, nil
}

// GetAccountID retrieves the AWS account ID of the active credentials.
func (s *ECRService) GetAccountID(ctx context.Context) (string, error) {
	output, err := s.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to get caller identity: %w", err)
	}
	return aws.ToString(output.Account), nil
}

// GetOrganizationID retrieves the AWS Organization ID if the account belongs
// to one. Returns empty when the account is standalone or lacks permissions.
func (s *ECRService) GetOrganizationID(ctx context.Context) (string, error) {
	output, err := s.orgClient.DescribeOrganization(ctx, &organizations.DescribeOrganizationInput{})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "AWSOrganizationsNotInUseException", "AccessDeniedException":
				return "", nil
			}
		}
		return "", fmt.Errorf("failed to describe organization: %w", err)
	}
	return aws.ToString(output.Organization.Id), nil
}

// SetRepositoryPolicy grants org-wide pull access on the repository.
func (s *ECRService) SetRepositoryPolicy(ctx context.Context, repositoryName, organizationID string) error {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Sid":    "OrganizationAccess",
				"Effect": "Allow",
				"Principal": map[string]interface{}{
					"AWS": "*",
				},
				"Action": []string{
					"ecr:GetDownloadUrlForLayer",
					"ecr:BatchGetImage",
					"ecr:BatchCheckLayerAvailability",
					"ecr:DescribeRepositories",
					"ecr:ListImages",
				},
				"Condition": map[string]interface{}{
					"StringEquals": map[string]interface{}{
						"aws:PrincipalOrgID": organizationID,
					},
				},
			},
		},
	}

	policyJSON, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}

	_, err = s.client.SetRepositoryPolicy(ctx, &ecr.SetRepositoryPolicyInput{
		RepositoryName: aws.String(repositoryName),
		PolicyText:     aws.String(string(policyJSON)),
	})
	if err != nil {
		return fmt.Errorf("failed to set repository policy: %w", err)
	}
	return nil
}
