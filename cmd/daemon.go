package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencode-portal/portal/internal/api"
	"github.com/opencode-portal/portal/internal/client"
	"github.com/opencode-portal/portal/internal/cmd"
	cmdopts "github.com/opencode-portal/portal/internal/cmd/options"
	"github.com/opencode-portal/portal/internal/daemon"
	"github.com/opencode-portal/portal/internal/flags"
)

// DefaultDaemonAddr is the address the daemon binds when --addr is not given.
const DefaultDaemonAddr = "localhost:8095"

// DaemonCmd should be used to represent the 'daemon' command.
type DaemonCmd struct {
	*cmd.BaseCmd
	Addr                 string
	CORSEnable           bool
	CORSAllowOrigins     []string
	CORSAllowCredentials bool
	HealthInterval       time.Duration
	HealthConcurrency    int
	ShutdownTimeout      time.Duration
	opts                 cmdopts.CmdOptions
}

// NewDaemonCmd creates a newly configured (Cobra) command.
func NewDaemonCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &DaemonCmd{
		BaseCmd: baseCmd,
		opts:    opts,
	}

	cobraCommand := &cobra.Command{
		Use:   "daemon [--addr] [--cors-enable --cors-allow-origin]",
		Short: "Launches a `portal` daemon instance",
		Long: "Launches a `portal` daemon instance, which serves the HTTP API " +
			"and periodically checks the health of known servers",
		Args: cobra.NoArgs,
		RunE: c.run,
	}

	cobraCommand.Flags().StringVar(
		&c.Addr,
		"addr",
		DefaultDaemonAddr,
		"Address for the daemon to bind",
	)

	cobraCommand.Flags().BoolVar(
		&c.CORSEnable,
		"cors-enable",
		false,
		"Enable CORS for the HTTP API",
	)

	cobraCommand.Flags().StringArrayVar(
		&c.CORSAllowOrigins,
		"cors-allow-origin",
		nil,
		"Origin allowed to call the HTTP API (can be repeated, requires --cors-enable)",
	)

	cobraCommand.Flags().BoolVar(
		&c.CORSAllowCredentials,
		"cors-allow-credentials",
		false,
		"Allow credentials on cross-origin requests, ignored for the '*' origin",
	)

	cobraCommand.Flags().DurationVar(
		&c.HealthInterval,
		"health-interval",
		daemon.DefaultHealthCheckInterval(),
		"Interval between health checks of known servers",
	)

	cobraCommand.Flags().IntVar(
		&c.HealthConcurrency,
		"health-concurrency",
		daemon.DefaultHealthCheckConcurrency(),
		"Maximum number of servers probed at the same time",
	)

	cobraCommand.Flags().DurationVar(
		&c.ShutdownTimeout,
		"shutdown-timeout",
		daemon.DefaultAPIShutdownTimeout(),
		"Time allowed for in-flight requests to finish on shutdown",
	)

	return cobraCommand, nil
}

// run is configured (via NewDaemonCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *DaemonCmd) run(cobraCmd *cobra.Command, _ []string) error {
	if err := c.RequireTogether(cobraCmd, "cors-enable", "cors-allow-origin"); err != nil {
		return err
	}

	logger, err := c.Logger()
	if err != nil {
		return err
	}

	addr := strings.TrimSpace(c.Addr)
	if err := daemon.IsValidAddr(addr); err != nil {
		return err
	}

	d, err := c.newDaemon(addr)
	if err != nil {
		return err
	}

	// Create the signal handling context for the application.
	daemonCtx, daemonCtxCancel := signal.NotifyContext(
		contextOrBackground(cobraCmd.Context()),
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGINT,
	)
	defer daemonCtxCancel()

	runErr := make(chan error, 1)
	go func() {
		if err := d.StartAndManage(daemonCtx); err != nil && !errors.Is(err, context.Canceled) {
			runErr <- err
		}
		close(runErr)
	}()

	logger.Info("Launching daemon", "addr", addr)
	banner := fmt.Sprintf("portal daemon running.\n\n"+
		"  Local API:\thttp://%s/api/v1\n"+
		"  OpenAPI UI:\thttp://%s/docs\n"+
		"  Registry:\t%s\n"+
		"  Settings:\t%s\n"+
		"  Overrides:\t%s\n",
		addr, addr, flags.RegistryFile, flags.SettingsFile, flags.PortalConfig)

	if flags.LogPath != "" {
		banner += fmt.Sprintf("  Log file:\t%s => (%s)\n", flags.LogPath, flags.LogLevel)
	}

	banner += "\nPress Ctrl+C to stop.\n\n"
	_, _ = fmt.Fprint(cobraCmd.OutOrStdout(), banner)

	select {
	case <-daemonCtx.Done():
		logger.Info("Shutting down daemon")
		err := <-runErr // Wait for cleanup and deferred logging.
		return err      // Graceful Ctrl+C / SIGTERM.
	case err := <-runErr:
		logger.Error("daemon exited with error", "error", err)
		return err // Propagate daemon failure.
	}
}

// newDaemon wires the connection flow, client cache and API options into a daemon bound to addr.
func (c *DaemonCmd) newDaemon(addr string) (*daemon.Daemon, error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}

	conn, err := newConnection(c.BaseCmd, logger, c.opts, 0)
	if err != nil {
		return nil, err
	}

	resolver, err := c.OverrideResolver()
	if err != nil {
		return nil, err
	}

	cache, err := client.NewCache(logger.Named("clients"), resolver, client.WithFactory(c.opts.ClientFactory))
	if err != nil {
		return nil, err
	}

	services := api.Services{
		Connector:     conn.flow,
		Servers:       conn.registry,
		HealthMonitor: conn.tracker,
		Clients:       cache,
	}

	deps, err := daemon.NewDependencies(logger.Named("daemon"), addr, services, conn.prober)
	if err != nil {
		return nil, fmt.Errorf("error configuring portal daemon dependencies: %w", err)
	}

	apiOpts := []daemon.APIOption{
		daemon.WithShutdownTimeout(c.ShutdownTimeout),
	}
	if c.CORSEnable {
		apiOpts = append(apiOpts,
			daemon.WithCORSEnabled(true),
			daemon.WithCORSAllowOrigins(c.CORSAllowOrigins),
			daemon.WithCORSAllowCredentials(c.CORSAllowCredentials),
		)
	}

	d, err := daemon.NewDaemon(
		deps,
		daemon.WithAPIOptions(apiOpts...),
		daemon.WithHealthCheckInterval(c.HealthInterval),
		daemon.WithHealthCheckConcurrency(c.HealthConcurrency),
		daemon.WithOverridePath(resolver.Path()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create portal daemon instance: %w", err)
	}

	return d, nil
}
