package manifest

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterSource retrieves configuration values from SSM Parameter Store.
type ParameterSource interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// SecretSource retrieves secret values from Secrets Manager.
type SecretSource interface {
	GetSecret(ctx context.Context, secretID string) (string, error)
}

// SSMParameterSource implements ParameterSource using AWS Systems Manager
// Parameter Store, caching values for the lifetime of the process.
type SSMParameterSource struct {
	client *ssm.Client
	mu     sync.RWMutex
	cache  map[string]string
}

// NewSSMParameterSource creates an SSM-backed parameter source.
func NewSSMParameterSource(client *ssm.Client) *SSMParameterSource {
	return &SSMParameterSource{
		client: client,
		cache:  make(map[string]string),
	}
}

// GetParameter retrieves a single decrypted parameter from SSM.
func (s *SSMParameterSource) GetParameter(ctx context.Context, name string) (string, error) {
	s.mu.RLock()
	if value, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return value, nil
	}
	s.mu.RUnlock()

	result, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %s: %w", name, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s not found", name)
	}
	value := *result.Parameter.Value

	s.mu.Lock()
	s.cache[name] = value
	s.mu.Unlock()

	return value, nil
}

// SecretsManagerSource implements SecretSource using AWS Secrets Manager.
type SecretsManagerSource struct {
	client *secretsmanager.Client
}

// NewSecretsManagerSource creates a Secrets Manager-backed secret source.
func NewSecretsManagerSource(client *secretsmanager.Client) *SecretsManagerSource {
	return &SecretsManagerSource{client: client}
}

// GetSecret retrieves the string value of a secret.
func (s *SecretsManagerSource) GetSecret(ctx context.Context, secretID string) (string, error) {
	result, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", secretID, err)
	}
	if result.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretID)
	}
	return *result.SecretString, nil
}

// Resolver resolves manifest env var entries to concrete values.
type Resolver struct {
	Parameters ParameterSource
	Secrets    SecretSource
}

// NewResolver creates a Resolver backed by the given sources.
func NewResolver(parameters ParameterSource, secrets SecretSource) *Resolver {
	return &Resolver{Parameters: parameters, Secrets: secrets}
}

// ResolveEnv resolves every env var in the manifest to a key/value map.
// Literal values pass through; fromParameter and fromSecret entries are
// fetched from their respective stores.
func (r *Resolver) ResolveEnv(ctx context.Context, m *Manifest) (map[string]string, error) {
	resolved := make(map[string]string, len(m.EnvVars))
	for _, ev := range m.EnvVars {
		switch {
		case ev.FromParameter != "":
			value, err := r.Parameters.GetParameter(ctx, ev.FromParameter)
			if err != nil {
				return nil, fmt.Errorf("env %s: %w", ev.Key, err)
			}
			resolved[ev.Key] = value
		case ev.FromSecret != "":
			value, err := r.Secrets.GetSecret(ctx, ev.FromSecret)
			if err != nil {
				return nil, fmt.Errorf("env %s: %w", ev.Key, err)
			}
			resolved[ev.Key] = value
		default:
			resolved[ev.Key] = ev.Value
		}
	}
	return resolved, nil
}
