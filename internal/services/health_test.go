package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/shipway/shipway/internal/errors"
	"github.com/shipway/shipway/internal/manifest"
)

func healthCheck() manifest.HealthCheck {
	return manifest.HealthCheck{
		Enabled:          true,
		Path:             "/health",
		IntervalSeconds:  1,
		TimeoutSeconds:   1,
		FailureThreshold: 3,
	}
}

func TestProbeDisabled(t *testing.T) {
	svc := NewHealthService(zerolog.Nop())
	err := svc.Probe(context.Background(), "http://localhost", manifest.HealthCheck{Enabled: false})
	assert.ErrorIs(t, err, apperrors.ErrHealthCheckDisabled)
}

func TestProbeHealthy(t *testing.T) {
	var path atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewHealthService(zerolog.Nop())
	err := svc.Probe(context.Background(), server.URL, healthCheck())
	require.NoError(t, err)
	assert.Equal(t, "/health", path.Load())
}

func TestProbeRecoversWithinThreshold(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := NewHealthService(zerolog.Nop())
	err := svc.Probe(context.Background(), server.URL, healthCheck())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestProbeFailsAfterThreshold(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	svc := NewHealthService(zerolog.Nop())
	err := svc.Probe(context.Background(), server.URL, healthCheck())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrHealthCheckFailed)
	assert.Equal(t, int32(3), calls.Load())
}

func TestProbeCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewHealthService(zerolog.Nop())
	hc := healthCheck()
	hc.InitialDelaySeconds = 1

	err := svc.Probe(ctx, server.URL, hc)
	assert.ErrorIs(t, err, context.Canceled)
}
