package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencode-portal/portal/internal/cmd"
	cmdopts "github.com/opencode-portal/portal/internal/cmd/options"
	"github.com/opencode-portal/portal/internal/domain"
	"github.com/opencode-portal/portal/internal/serverurl"
)

// ServerItem is the rendered form of a known server.
type ServerItem struct {
	ID      string    `json:"id"      yaml:"id"`
	URL     string    `json:"url"     yaml:"url"`
	Active  bool      `json:"active"  yaml:"active"`
	AddedAt time.Time `json:"addedAt" yaml:"addedAt"`
}

func toServerItem(r domain.ServerRecord) ServerItem {
	return ServerItem{
		ID:      r.ID,
		URL:     r.URL,
		Active:  r.Active,
		AddedAt: r.AddedAt,
	}
}

// serverPrinter prints known servers as text, marking the active one.
type serverPrinter struct{}

func (serverPrinter) Header(w io.Writer, count int) {
	_, _ = fmt.Fprintf(w, "Known servers (%d):\n", count)
}

func (serverPrinter) Item(w io.Writer, s ServerItem) error {
	marker := " "
	if s.Active {
		marker = "*"
	}
	_, err := fmt.Fprintf(w, "  %s %s (added %s)\n", marker, s.URL, s.AddedAt.Format(time.RFC3339))
	return err
}

func (serverPrinter) Footer(w io.Writer, _ int) {
	_, _ = fmt.Fprintln(w, "\n* = active")
}

// NewServersCmd creates the 'servers' command group.
func NewServersCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	cobraCmd := &cobra.Command{
		Use:   "servers",
		Short: "Manages known OpenCode servers.",
		Long:  "Lists and removes the OpenCode servers recorded by successful connections.",
	}

	fns := []createCmdFunc{
		NewServersListCmd,
		NewServersRemoveCmd,
	}

	for _, fn := range fns {
		tempCmd, err := fn(baseCmd, opt...)
		if err != nil {
			return nil, err
		}
		cobraCmd.AddCommand(tempCmd)
	}

	return cobraCmd, nil
}

// ServersListCmd should be used to represent the 'servers list' command.
type ServersListCmd struct {
	*cmd.BaseCmd
	Format cmd.OutputFormat
}

// NewServersListCmd creates a newly configured (Cobra) command.
func NewServersListCmd(baseCmd *cmd.BaseCmd, _ ...cmdopts.CmdOption) (*cobra.Command, error) {
	c := &ServersListCmd{
		BaseCmd: baseCmd,
		Format:  cmd.FormatText,
	}

	cobraCommand := &cobra.Command{
		Use:   "list",
		Short: "Lists known servers",
		Long:  "Lists known servers in the order they were first added",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}

	allowed := cmd.AllowedOutputFormats()
	cobraCommand.Flags().Var(
		&c.Format,
		"format",
		fmt.Sprintf("Specify the output format (one of: %s)", allowed.String()),
	)

	return cobraCommand, nil
}

func (c *ServersListCmd) run(cobraCmd *cobra.Command, _ []string) error {
	handler, err := cmd.NewHandler[ServerItem](c.Format, cobraCmd.OutOrStdout(), serverPrinter{})
	if err != nil {
		return err
	}

	reg, err := c.LoadRegistry()
	if err != nil {
		return handler.HandleError(err)
	}

	records := reg.List()
	items := make([]ServerItem, 0, len(records))
	for _, r := range records {
		items = append(items, toServerItem(r))
	}

	return handler.HandleResults(items...)
}

// ServersRemoveCmd should be used to represent the 'servers remove' command.
type ServersRemoveCmd struct {
	*cmd.BaseCmd
}

// NewServersRemoveCmd creates a newly configured (Cobra) command.
func NewServersRemoveCmd(baseCmd *cmd.BaseCmd, _ ...cmdopts.CmdOption) (*cobra.Command, error) {
	c := &ServersRemoveCmd{
		BaseCmd: baseCmd,
	}

	cobraCommand := &cobra.Command{
		Use:   "remove <url>",
		Short: "Removes a known server",
		Long:  "Removes a known server, the URL is normalized before it is matched",
		RunE:  c.run,
	}

	return cobraCommand, nil
}

func (c *ServersRemoveCmd) run(cobraCmd *cobra.Command, args []string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("server url is required and cannot be empty")
	}

	logger, err := c.Logger()
	if err != nil {
		return err
	}

	u, err := serverurl.Normalize(args[0])
	if err != nil {
		return err
	}

	reg, err := c.LoadRegistry()
	if err != nil {
		return err
	}

	if err := reg.Remove(string(u)); err != nil {
		return err
	}

	logger.Debug("Server removed", "url", u)
	if _, err := fmt.Fprintf(cobraCmd.OutOrStdout(), "✓ Removed server '%s'\n", u); err != nil {
		return err
	}

	return nil
}
