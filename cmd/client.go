package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencode-portal/portal/internal/client"
	"github.com/opencode-portal/portal/internal/cmd"
	cmdopts "github.com/opencode-portal/portal/internal/cmd/options"
	"github.com/opencode-portal/portal/internal/health"
)

// ClientItem is the rendered form of a resolved client.
type ClientItem struct {
	Key     string `json:"key"               yaml:"key"`
	BaseURL string `json:"baseUrl"           yaml:"baseUrl"`
	Status  string `json:"status,omitempty"  yaml:"status,omitempty"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Latency string `json:"latency,omitempty" yaml:"latency,omitempty"`
}

// clientPrinter prints a resolved client as text.
type clientPrinter struct{}

func (clientPrinter) Header(_ io.Writer, _ int) {}

func (clientPrinter) Item(w io.Writer, item ClientItem) error {
	lines := []string{
		fmt.Sprintf("Key:      %s", item.Key),
		fmt.Sprintf("Base URL: %s", item.BaseURL),
	}
	if item.Status != "" {
		lines = append(lines, fmt.Sprintf("Health:   %s", item.Status))
	}
	if item.Version != "" {
		lines = append(lines, fmt.Sprintf("Version:  %s", item.Version))
	}
	if item.Latency != "" {
		lines = append(lines, fmt.Sprintf("Latency:  %s", item.Latency))
	}

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func (clientPrinter) Footer(_ io.Writer, _ int) {}

// ClientCmd should be used to represent the 'client' command.
type ClientCmd struct {
	*cmd.BaseCmd
	Probe  bool
	Format cmd.OutputFormat
	opts   cmdopts.CmdOptions
}

// NewClientCmd creates a newly configured (Cobra) command.
func NewClientCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &ClientCmd{
		BaseCmd: baseCmd,
		Format:  cmd.FormatText,
		opts:    opts,
	}

	cobraCommand := &cobra.Command{
		Use:   "client <port>",
		Short: "Resolves the OpenCode client for a port",
		Long: "Resolves the hostname for a port using the override file " +
			"and shows the client that would be used to reach it",
		Args: cobra.ExactArgs(1),
		RunE: c.run,
	}

	cobraCommand.Flags().BoolVar(
		&c.Probe,
		"probe",
		true,
		"Check the health of the resolved server",
	)

	allowed := cmd.AllowedOutputFormats()
	cobraCommand.Flags().Var(
		&c.Format,
		"format",
		fmt.Sprintf("Specify the output format (one of: %s)", allowed.String()),
	)

	return cobraCommand, nil
}

func (c *ClientCmd) run(cobraCmd *cobra.Command, args []string) error {
	handler, err := cmd.NewHandler[ClientItem](c.Format, cobraCmd.OutOrStdout(), clientPrinter{})
	if err != nil {
		return err
	}

	port, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return handler.HandleError(fmt.Errorf("invalid port '%s'", args[0]))
	}

	logger, err := c.Logger()
	if err != nil {
		return handler.HandleError(err)
	}

	resolver, err := c.OverrideResolver()
	if err != nil {
		return handler.HandleError(err)
	}

	cache, err := client.NewCache(logger.Named("clients"), resolver, client.WithFactory(c.opts.ClientFactory))
	if err != nil {
		return handler.HandleError(err)
	}

	cl, key, err := cache.GetWithKey(port)
	if err != nil {
		return handler.HandleError(err)
	}

	item := ClientItem{
		Key:     key,
		BaseURL: cl.BaseURL().String(),
	}

	if c.Probe {
		result, err := cl.Health(contextOrBackground(cobraCmd.Context()))
		item.Status = string(health.Classify(result, err))
		if err == nil {
			item.Version = result.Version
			item.Latency = result.Latency.Round(time.Millisecond).String()
		}
	}

	return handler.HandleResult(item)
}
