package health

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/opencode-portal/portal/internal/domain"
	"github.com/opencode-portal/portal/internal/errors"
)

// Tracker records the latest health outcome per server URL.
// It is safe for concurrent use by multiple goroutines.
type Tracker struct {
	mu       sync.RWMutex
	statuses map[string]domain.ServerHealth
}

// NewTracker returns a Tracker with the given URLs tracked in an unknown state.
func NewTracker(urls ...string) *Tracker {
	statuses := make(map[string]domain.ServerHealth, len(urls))
	for _, u := range urls {
		statuses[u] = domain.ServerHealth{URL: u, Status: domain.HealthStatusUnknown}
	}
	return &Tracker{
		statuses: statuses,
	}
}

// Track starts tracking the URL in an unknown state, it does nothing if the URL is already tracked.
func (t *Tracker) Track(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.statuses[url]; ok {
		return
	}
	t.statuses[url] = domain.ServerHealth{URL: url, Status: domain.HealthStatusUnknown}
}

// Untrack stops tracking the URL, it does nothing if the URL is not tracked.
func (t *Tracker) Untrack(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.statuses, url)
}

// Status returns the health status for a single tracked server.
func (t *Tracker) Status(url string) (domain.ServerHealth, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if h, ok := t.statuses[url]; ok {
		return h, nil
	}

	return domain.ServerHealth{}, fmt.Errorf("%w: %s", errors.ErrHealthNotTracked, url)
}

// List returns a copy of all known server health records.
func (t *Tracker) List() []domain.ServerHealth {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Collect(maps.Values(t.statuses))
}

// Update records a health check for a tracked server.
// The current time is recorded as LastChecked, and LastSuccessful is updated only if status is HealthStatusOK.
// Latency can be nil if the probe failed or was not measured.
func (t *Tracker) Update(url string, status domain.HealthStatus, latency *time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, exists := t.statuses[url]
	if !exists {
		return fmt.Errorf("%w: %s", errors.ErrHealthNotTracked, url)
	}

	now := time.Now().UTC()

	lastSuccessful := prev.LastSuccessful
	if status == domain.HealthStatusOK {
		lastSuccessful = &now
	}

	var l *time.Duration
	if latency != nil {
		d := *latency
		l = &d
	}

	t.statuses[url] = domain.ServerHealth{
		URL:            url,
		Status:         status,
		Latency:        l,
		LastChecked:    &now,
		LastSuccessful: lastSuccessful,
	}

	return nil
}
