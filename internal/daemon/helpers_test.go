package daemon

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/opencode-portal/portal/internal/api"
	"github.com/opencode-portal/portal/internal/client"
	"github.com/opencode-portal/portal/internal/connect"
	"github.com/opencode-portal/portal/internal/domain"
	"github.com/opencode-portal/portal/internal/health"
	"github.com/opencode-portal/portal/internal/registry"
	"github.com/opencode-portal/portal/internal/serverurl"
)

// stubConnector returns a fixed outcome for every attempt.
type stubConnector struct {
	url serverurl.URL
	err error
}

func (s *stubConnector) Connect(context.Context, string) (serverurl.URL, error) {
	return s.url, s.err
}

func (s *stubConnector) Status() connect.Status {
	return connect.Status{State: connect.StateIdle}
}

// stubProber reports a fixed outcome per URL and counts probes.
type stubProber struct {
	mu      sync.Mutex
	results map[serverurl.URL]domain.HealthResult
	errs    map[serverurl.URL]error
	calls   int
}

func (p *stubProber) Probe(_ context.Context, u serverurl.URL) (domain.HealthResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.results[u], p.errs[u]
}

func (p *stubProber) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type testEnv struct {
	services api.Services
	registry *registry.Registry
	tracker  *health.Tracker
	cache    *client.Cache
	override string
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	logger := hclog.NewNullLogger()

	prober, err := health.NewProber(http.DefaultClient)
	require.NoError(t, err)

	reg := registry.New()
	tracker := health.NewTracker()

	flow, err := connect.NewFlow(
		connect.Dependencies{Logger: logger, Prober: prober, Registry: reg},
		connect.WithHealthMonitor(tracker),
	)
	require.NoError(t, err)

	override := filepath.Join(t.TempDir(), client.DefaultOverrideFileName)
	resolver, err := client.NewOverrideResolver(logger, override)
	require.NoError(t, err)

	cache, err := client.NewCache(logger, resolver)
	require.NoError(t, err)

	return testEnv{
		services: api.Services{
			Connector:     flow,
			Servers:       reg,
			HealthMonitor: tracker,
			Clients:       cache,
		},
		registry: reg,
		tracker:  tracker,
		cache:    cache,
		override: override,
	}
}
