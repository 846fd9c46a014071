package contracts

import (
	"context"
	"time"

	"github.com/opencode-portal/portal/internal/domain"
)

// ServerRegistry is the subset of the server registry used when a connection succeeds.
type ServerRegistry interface {
	// Add records the server URL, it is a no-op when the URL is already known.
	Add(url string) error

	// SetActive marks a known server URL as the active server.
	SetActive(url string) error
}

// ServerLister provides read access to known servers.
type ServerLister interface {
	// List returns a copy of all known server records.
	List() []domain.ServerRecord

	// Remove deletes the server record for the URL.
	Remove(url string) error
}

// DefaultServerSetter persists a server URL as the platform default.
type DefaultServerSetter interface {
	SetDefaultServerURL(ctx context.Context, url string) error
}

// HealthMonitor provides a way to interact with the health status of servers.
type HealthMonitor interface {
	// Track starts tracking health for the URL, it is a no-op when already tracked.
	Track(url string)

	// Untrack stops tracking health for the URL, it is a no-op when not tracked.
	Untrack(url string)

	// Status returns the health status for a single tracked server.
	Status(url string) (domain.ServerHealth, error)

	// List returns a copy of all known server health records.
	List() []domain.ServerHealth

	// Update records a health check for a tracked server.
	Update(url string, status domain.HealthStatus, latency *time.Duration) error
}

// HostnameResolver decides which hostname serves a given OpenCode port.
type HostnameResolver interface {
	HostnameForPort(port int) string
}
