package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opencode-portal/portal/internal/cmd"
	cmdopts "github.com/opencode-portal/portal/internal/cmd/options"
	"github.com/opencode-portal/portal/internal/connect"
)

// ConnectCmd should be used to represent the 'connect' command.
type ConnectCmd struct {
	*cmd.BaseCmd
	Progress bool
	opts     cmdopts.CmdOptions
}

// NewConnectCmd creates a newly configured (Cobra) command.
func NewConnectCmd(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	opts, err := cmdopts.NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	c := &ConnectCmd{
		BaseCmd: baseCmd,
		opts:    opts,
	}

	cobraCommand := &cobra.Command{
		Use:   "connect <url>",
		Short: "Connects to an OpenCode server",
		Long: "Checks the health of an OpenCode server and, when healthy, records it as a known server, " +
			"marks it active and saves it as the default server",
		Args: cobra.MaximumNArgs(1),
		RunE: c.run,
	}

	cobraCommand.Flags().BoolVar(
		&c.Progress,
		"progress",
		false,
		"Print each step of the connection attempt",
	)

	return cobraCommand, nil
}

// run is configured (via NewConnectCmd) to be called by the Cobra framework when the command is executed.
// It may return an error (or nil, when there is no error).
func (c *ConnectCmd) run(cmd *cobra.Command, args []string) error {
	logger, err := c.Logger()
	if err != nil {
		return err
	}

	var input string
	if len(args) > 0 {
		input = args[0]
	}

	eventBuffer := 0
	if c.Progress {
		eventBuffer = connect.DefaultEventBuffer
	}

	conn, err := newConnection(c.BaseCmd, logger, c.opts, eventBuffer)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(contextOrBackground(cmd.Context()), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	u, err := conn.flow.Connect(ctx, input)

	if c.Progress {
		printEvents(cmd.OutOrStdout(), conn.flow.Events())
	}

	if err != nil {
		if msg := conn.flow.Message(); msg != "" && msg != err.Error() {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return err
	}

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "✓ Connected to %s\n", u); err != nil {
		return err
	}

	return nil
}

// printEvents writes the events already queued on ch without waiting for more.
func printEvents(w io.Writer, ch <-chan connect.Event) {
	for {
		select {
		case e := <-ch:
			line := fmt.Sprintf("  %s -> %s", e.From, e.To)
			if e.Message != "" {
				line += fmt.Sprintf(" (%s)", e.Message)
			}
			_, _ = fmt.Fprintln(w, line)
		default:
			return
		}
	}
}

// contextOrBackground returns ctx, or context.Background when ctx is nil.
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
