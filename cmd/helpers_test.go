package cmd

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/opencode-portal/portal/internal/cmd"
	"github.com/opencode-portal/portal/internal/flags"
	"github.com/opencode-portal/portal/internal/health"
)

// testPaths are the files commands read and write during a test.
type testPaths struct {
	registry  string
	settings  string
	overrides string
}

// useTempFiles points the file flags at a temporary directory for the duration of the test.
// Tests using it change package globals and must not run in parallel.
func useTempFiles(t *testing.T) testPaths {
	t.Helper()

	prevRegistry, prevSettings, prevConfig := flags.RegistryFile, flags.SettingsFile, flags.PortalConfig
	t.Cleanup(func() {
		flags.RegistryFile = prevRegistry
		flags.SettingsFile = prevSettings
		flags.PortalConfig = prevConfig
	})

	dir := t.TempDir()
	paths := testPaths{
		registry:  filepath.Join(dir, "servers.toml"),
		settings:  filepath.Join(dir, "opencode.settings.dat"),
		overrides: filepath.Join(dir, ".portal.json"),
	}

	flags.RegistryFile = paths.registry
	flags.SettingsFile = paths.settings
	flags.PortalConfig = paths.overrides

	return paths
}

// newOpenCodeServer starts a server whose health endpoint reports the given health.
func newOpenCodeServer(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(health.DefaultPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"healthy":%t,"version":"1.0.0"}`, healthy)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func newBaseCmd() *cmd.BaseCmd {
	baseCmd := &cmd.BaseCmd{}
	baseCmd.SetLogger(hclog.NewNullLogger())
	return baseCmd
}

// execute runs c with args and returns everything written to stdout and stderr.
func execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()

	// A nil slice makes cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}

	output := &bytes.Buffer{}
	c.SetOut(output)
	c.SetErr(output)
	c.SetArgs(args)

	err := c.Execute()

	return output.String(), err
}

func newTestCmd(
	t *testing.T,
	fn createCmdFunc,
) *cobra.Command {
	t.Helper()

	c, err := fn(newBaseCmd())
	require.NoError(t, err)

	return c
}
