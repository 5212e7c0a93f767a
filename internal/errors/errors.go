package errors

import "errors"

var (
	ErrMalformedAuthToken   = errors.New("malformed ECR authorization token")
	ErrServiceNotFound      = errors.New("service not found in cluster")
	ErrDeploymentFailed     = errors.New("deployment rollout failed")
	ErrStabilityTimeout     = errors.New("timed out waiting for service to stabilize")
	ErrHealthCheckFailed    = errors.New("health check failed")
	ErrHealthCheckDisabled  = errors.New("health checks are disabled in the manifest")
	ErrRepositoryURIChanged = errors.New("resolved repository URI changed between steps")
)
