// Package manifest loads and validates the service manifest that describes
// how a containerized service runs on the platform: runtime, build and start
// commands, environment variables, health check, and persistent disk.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvVar is a single environment variable entry. Exactly one of Value,
// FromParameter, or FromSecret must be set.
type EnvVar struct {
	Key           string `yaml:"key"`
	Value         string `yaml:"value,omitempty"`
	FromParameter string `yaml:"fromParameter,omitempty"` // SSM parameter name
	FromSecret    string `yaml:"fromSecret,omitempty"`    // Secrets Manager secret ID
}

// HealthCheck describes the HTTP health probe for the service.
type HealthCheck struct {
	Enabled             bool   `yaml:"enabled"`
	Path                string `yaml:"path"`
	InitialDelaySeconds int    `yaml:"initialDelaySeconds"`
	IntervalSeconds     int    `yaml:"intervalSeconds"`
	TimeoutSeconds      int    `yaml:"timeoutSeconds"`
	FailureThreshold    int    `yaml:"failureThreshold"`
}

// Disk describes a persistent volume mounted into the service. Its contents
// survive redeployments of the service.
type Disk struct {
	Name      string `yaml:"name"`
	MountPath string `yaml:"mountPath"`
	SizeGB    int    `yaml:"sizeGB"`
}

// Manifest is the root service manifest document.
type Manifest struct {
	Name         string      `yaml:"name"`
	Runtime      string      `yaml:"runtime"`
	Region       string      `yaml:"region,omitempty"`
	Repository   string      `yaml:"repository,omitempty"` // ECR repository name; defaults to Name
	BuildCommand string      `yaml:"buildCommand,omitempty"`
	StartCommand string      `yaml:"startCommand"`
	KeepAlive    bool        `yaml:"keepAlive"`
	EnvVars      []EnvVar    `yaml:"envVars,omitempty"`
	HealthCheck  HealthCheck `yaml:"healthCheck"`
	Disks        []Disk      `yaml:"disks"`
}

// DefaultPath is the manifest filename looked up in the build context when
// no explicit path is given.
const DefaultPath = "service.yaml"

// Load reads and parses a manifest file, applying defaults.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses manifest bytes, applying defaults.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.applyDefaults()
	return &m, nil
}

func (m *Manifest) applyDefaults() {
	if m.Repository == "" {
		m.Repository = m.Name
	}
	if m.Runtime == "" {
		m.Runtime = "docker"
	}
	hc := &m.HealthCheck
	if hc.Enabled {
		if hc.Path == "" {
			hc.Path = "/health"
		}
		if hc.IntervalSeconds == 0 {
			hc.IntervalSeconds = 15
		}
		if hc.TimeoutSeconds == 0 {
			hc.TimeoutSeconds = 5
		}
		if hc.FailureThreshold == 0 {
			hc.FailureThreshold = 3
		}
	}
}
