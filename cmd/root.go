package cmd

import (
	"github.com/spf13/cobra"

	"github.com/opencode-portal/portal/internal/cmd"
	cmdopts "github.com/opencode-portal/portal/internal/cmd/options"
	"github.com/opencode-portal/portal/internal/flags"
)

// RootCmd should be used to represent the top-level 'portal' command.
type RootCmd struct {
	*cmd.BaseCmd
}

// createCmdFunc creates a sub-command sharing the root's BaseCmd.
type createCmdFunc func(baseCmd *cmd.BaseCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error)

// Execute builds the root command and runs it against os.Args.
func Execute() error {
	rootCmd, err := NewRootCmd(&RootCmd{BaseCmd: &cmd.BaseCmd{}})
	if err != nil {
		return err
	}

	return rootCmd.Execute()
}

// NewRootCmd creates the root command and attaches every sub-command to it.
func NewRootCmd(c *RootCmd, opt ...cmdopts.CmdOption) (*cobra.Command, error) {
	rootCmd := &cobra.Command{
		Use:          "portal <command> [args]",
		Short:        "Connects to OpenCode servers and manages cached clients.",
		Long:         c.longDescription(),
		SilenceUsage: true,
		Version:      cmd.Version(),
	}

	if err := flags.InitFlags(rootCmd.PersistentFlags()); err != nil {
		return nil, err
	}

	fns := []createCmdFunc{
		NewConnectCmd,
		NewServersCmd,
		NewClientCmd,
		NewDaemonCmd,
	}

	for _, fn := range fns {
		tempCmd, err := fn(c.BaseCmd, opt...)
		if err != nil {
			return nil, err
		}
		rootCmd.AddCommand(tempCmd)
	}

	return rootCmd, nil
}

func (c *RootCmd) longDescription() string {
	return `The 'portal' CLI connects to OpenCode servers, remembers the servers it has
reached, and resolves the client used to talk to a server on a given port.`
}
