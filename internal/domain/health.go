package domain

import "time"

const (
	HealthStatusOK          HealthStatus = "ok"
	HealthStatusUnhealthy   HealthStatus = "unhealthy"
	HealthStatusTimeout     HealthStatus = "timeout"
	HealthStatusUnreachable HealthStatus = "unreachable"
	HealthStatusUnknown     HealthStatus = "unknown"
)

// HealthStatus represents the internal state of an OpenCode server's availability.
type HealthStatus string

// HealthResult is the outcome of a single health probe that received a response.
type HealthResult struct {
	Healthy    bool
	StatusCode int
	Version    string
	Latency    time.Duration
}

// ServerHealth tracks the most recent health state for a server URL.
type ServerHealth struct {
	URL            string
	Status         HealthStatus
	Latency        *time.Duration
	LastChecked    *time.Time
	LastSuccessful *time.Time
}
