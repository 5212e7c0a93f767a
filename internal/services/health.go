package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	apperrors "github.com/shipway/shipway/internal/errors"
	"github.com/shipway/shipway/internal/manifest"
)

// HealthService probes a deployed service's HTTP health endpoint using the
// timing parameters declared in the service manifest.
type HealthService struct {
	client *http.Client
	logger zerolog.Logger
}

// NewHealthService creates a HealthService.
func NewHealthService(logger zerolog.Logger) *HealthService {
	return &HealthService{
		client: &http.Client{},
		logger: logger.With().Str("service", "health").Logger(),
	}
}

// Probe waits the initial delay, then polls the health endpoint every
// interval until it returns 2xx or the consecutive failure count reaches the
// manifest's failure threshold.
func (s *HealthService) Probe(ctx context.Context, baseURL string, hc manifest.HealthCheck) error {
	if !hc.Enabled {
		return apperrors.ErrHealthCheckDisabled
	}

	endpoint, err := url.JoinPath(baseURL, hc.Path)
	if err != nil {
		return fmt.Errorf("invalid health check URL: %w", err)
	}

	logger := s.logger.With().Str("endpoint", endpoint).Logger()

	if hc.InitialDelaySeconds > 0 {
		logger.Info().Int("seconds", hc.InitialDelaySeconds).Msg("waiting initial delay")
		if err := sleep(ctx, time.Duration(hc.InitialDelaySeconds)*time.Second); err != nil {
			return err
		}
	}

	interval := time.Duration(hc.IntervalSeconds) * time.Second
	timeout := time.Duration(hc.TimeoutSeconds) * time.Second

	var lastErr error
	for failures := 0; failures < hc.FailureThreshold; failures++ {
		if failures > 0 {
			if err := sleep(ctx, interval); err != nil {
				return err
			}
		}

		status, err := s.check(ctx, endpoint, timeout)
		if err == nil {
			logger.Info().Int("status", status).Msg("health check passed")
			return nil
		}
		lastErr = err
		logger.Warn().Err(err).Int("attempt", failures+1).Int("threshold", hc.FailureThreshold).Msg("health check attempt failed")
	}

	return fmt.Errorf("%w after %d attempts: %v", apperrors.ErrHealthCheckFailed, hc.FailureThreshold, lastErr)
}

func (s *HealthService) check(ctx context.Context, endpoint string, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
