package cmd

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/opencode-portal/portal/internal/cmd"
	cmdopts "github.com/opencode-portal/portal/internal/cmd/options"
	"github.com/opencode-portal/portal/internal/connect"
	"github.com/opencode-portal/portal/internal/health"
	"github.com/opencode-portal/portal/internal/registry"
)

// connection holds the components behind a connection attempt.
type connection struct {
	flow     *connect.Flow
	prober   *health.Prober
	registry *registry.Registry
	tracker  *health.Tracker
}

// newConnection wires a connect.Flow to the configured registry and settings files.
// Every server already in the registry is tracked for health.
func newConnection(
	baseCmd *cmd.BaseCmd,
	logger hclog.Logger,
	opts cmdopts.CmdOptions,
	eventBuffer int,
) (*connection, error) {
	prober, err := health.NewProber(opts.Doer, opts.HealthOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create health prober: %w", err)
	}

	reg, err := baseCmd.LoadRegistry()
	if err != nil {
		return nil, err
	}

	store, err := baseCmd.SettingsStore()
	if err != nil {
		return nil, err
	}

	records := reg.List()
	urls := make([]string, 0, len(records))
	for _, r := range records {
		urls = append(urls, r.URL)
	}
	tracker := health.NewTracker(urls...)

	flow, err := connect.NewFlow(
		connect.Dependencies{
			Logger:   logger.Named("connect"),
			Prober:   prober,
			Registry: reg,
		},
		connect.WithDefaultServerSetter(store),
		connect.WithHealthMonitor(tracker),
		connect.WithEventBuffer(eventBuffer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection flow: %w", err)
	}

	return &connection{
		flow:     flow,
		prober:   prober,
		registry: reg,
		tracker:  tracker,
	}, nil
}
