package manifest

import (
	"fmt"
	"regexp"
	"strings"
)

var envKeyRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationError aggregates every problem found in a manifest so callers
// can report them all at once instead of fixing one field per run.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid manifest: %s", strings.Join(e.Problems, "; "))
}

// Validate checks the static consistency of the manifest:
//   - name and start command are present
//   - runtime is docker
//   - exactly one disk, with a name, an absolute mount path, and a positive size
//   - health check fields are coherent when enabled
//   - env var keys are unique and well formed, each entry with exactly one source
func (m *Manifest) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if m.Name == "" {
		add("name is required")
	}
	if m.Runtime != "docker" {
		add("runtime must be %q, got %q", "docker", m.Runtime)
	}
	if m.StartCommand == "" {
		add("startCommand is required")
	}

	if len(m.Disks) != 1 {
		add("exactly one disk must be declared, got %d", len(m.Disks))
	}
	for i, d := range m.Disks {
		if d.Name == "" {
			add("disks[%d]: name is required", i)
		}
		if !strings.HasPrefix(d.MountPath, "/") {
			add("disks[%d]: mountPath %q must be absolute", i, d.MountPath)
		}
		if d.SizeGB <= 0 {
			add("disks[%d]: sizeGB must be positive, got %d", i, d.SizeGB)
		}
	}

	hc := m.HealthCheck
	if hc.Enabled {
		if !strings.HasPrefix(hc.Path, "/") {
			add("healthCheck.path %q must start with /", hc.Path)
		}
		if hc.InitialDelaySeconds < 0 {
			add("healthCheck.initialDelaySeconds must not be negative")
		}
		if hc.IntervalSeconds <= 0 {
			add("healthCheck.intervalSeconds must be positive")
		}
		if hc.TimeoutSeconds <= 0 {
			add("healthCheck.timeoutSeconds must be positive")
		}
		if hc.TimeoutSeconds >= hc.IntervalSeconds {
			add("healthCheck.timeoutSeconds (%d) must be less than intervalSeconds (%d)", hc.TimeoutSeconds, hc.IntervalSeconds)
		}
		if hc.FailureThreshold <= 0 {
			add("healthCheck.failureThreshold must be positive")
		}
	}

	seen := make(map[string]bool, len(m.EnvVars))
	for i, ev := range m.EnvVars {
		if !envKeyRe.MatchString(ev.Key) {
			add("envVars[%d]: invalid key %q", i, ev.Key)
		}
		if seen[ev.Key] {
			add("envVars[%d]: duplicate key %q", i, ev.Key)
		}
		seen[ev.Key] = true

		sources := 0
		if ev.Value != "" {
			sources++
		}
		if ev.FromParameter != "" {
			sources++
		}
		if ev.FromSecret != "" {
			sources++
		}
		if sources != 1 {
			add("envVars[%d] (%s): exactly one of value, fromParameter, fromSecret must be set", i, ev.Key)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
