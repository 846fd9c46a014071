// Package daemon serves the portal HTTP API and keeps the health of known servers current.
package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/opencode-portal/portal/internal/api"
	"github.com/opencode-portal/portal/internal/client"
	"github.com/opencode-portal/portal/internal/connect"
	"github.com/opencode-portal/portal/internal/health"
	"github.com/opencode-portal/portal/internal/serverurl"
)

// Daemon runs the API server alongside periodic health checks of known servers.
// NewDaemon should be used to create instances of Daemon.
type Daemon struct {
	logger    hclog.Logger
	apiServer *APIServer
	services  api.Services
	prober    connect.Prober

	healthCheckInterval    time.Duration
	healthCheckConcurrency int
	overridePath           string
}

// NewDaemon creates a new Daemon instance with the provided dependencies and options.
func NewDaemon(deps Dependencies, opt ...Option) (*Daemon, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	apiDeps, err := NewAPIDependencies(deps.Logger, deps.Services, deps.APIAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to create API dependencies: %w", err)
	}

	apiServer, err := NewAPIServer(apiDeps, opts.APIOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create daemon API server: %w", err)
	}

	return &Daemon{
		logger:                 deps.Logger.Named("daemon"),
		apiServer:              apiServer,
		services:               deps.Services,
		prober:                 deps.Prober,
		healthCheckInterval:    opts.HealthCheckInterval,
		healthCheckConcurrency: opts.HealthCheckConcurrency,
		overridePath:           opts.OverridePath,
	}, nil
}

// StartAndManage starts the override watcher, health checks and API server.
// It blocks until ctx is canceled or the API server fails.
func (d *Daemon) StartAndManage(ctx context.Context) error {
	if d.overridePath != "" {
		if err := client.WatchOverrides(ctx, d.logger, d.overridePath, d.services.Clients); err != nil {
			// Hostname overrides are still read on every lookup, only stale clients may linger.
			d.logger.Warn("Unable to watch override file", "path", d.overridePath, "error", err)
		}
	}

	for _, s := range d.services.Servers.List() {
		d.services.HealthMonitor.Track(s.URL)
	}

	go d.healthCheckLoop(ctx)

	return d.apiServer.Start(ctx, nil)
}

// healthCheckLoop probes every known server on each tick until ctx is done.
func (d *Daemon) healthCheckLoop(ctx context.Context) {
	ticker := time.NewTicker(d.healthCheckInterval)
	defer ticker.Stop()

	d.checkAllServers(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Stopping server health checks")
			return
		case <-ticker.C:
			d.checkAllServers(ctx)
		}
	}
}

// checkAllServers probes every known server and records the outcome.
func (d *Daemon) checkAllServers(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.healthCheckConcurrency)

	for _, s := range d.services.Servers.List() {
		g.Go(func() error {
			d.checkServer(gctx, s.URL)
			return nil
		})
	}

	_ = g.Wait()
}

func (d *Daemon) checkServer(ctx context.Context, url string) {
	u, err := serverurl.Normalize(url)
	if err != nil {
		d.logger.Warn("Skipping health check for invalid server url", "url", url, "error", err)
		return
	}

	result, err := d.prober.Probe(ctx, u)
	if ctx.Err() != nil {
		return
	}
	status := health.Classify(result, err)

	var latency *time.Duration
	if err == nil {
		latency = &result.Latency
	}

	d.services.HealthMonitor.Track(url)
	if err := d.services.HealthMonitor.Update(url, status, latency); err != nil {
		d.logger.Error("Failed to record server health", "url", url, "error", err)
		return
	}

	d.logger.Debug("Health check complete", "url", url, "status", status)
}
