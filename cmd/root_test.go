package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencode-portal/portal/internal/cmd"
	cmdopts "github.com/opencode-portal/portal/internal/cmd/options"
)

func TestNewRootCmd(t *testing.T) {
	rootCmd, err := NewRootCmd(&RootCmd{BaseCmd: newBaseCmd()})
	require.NoError(t, err)

	require.Equal(t, cmd.Version(), rootCmd.Version)
	require.True(t, rootCmd.SilenceUsage)

	names := make([]string, 0, len(rootCmd.Commands()))
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	require.Subset(t, names, []string{"connect", "servers", "client", "daemon"})

	for _, name := range []string{"registry-file", "settings-file", "portal-config", "log-path", "log-level"} {
		require.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestNewRootCmd_InvalidOption(t *testing.T) {
	_, err := NewRootCmd(&RootCmd{BaseCmd: newBaseCmd()}, cmdopts.WithDoer(nil))
	require.EqualError(t, err, "doer cannot be nil")
}

func TestNewServersCmd_Subcommands(t *testing.T) {
	c := newTestCmd(t, NewServersCmd)

	names := make([]string, 0, len(c.Commands()))
	for _, sub := range c.Commands() {
		names = append(names, sub.Name())
	}
	require.ElementsMatch(t, []string{"list", "remove"}, names)
}
