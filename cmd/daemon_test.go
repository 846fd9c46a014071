package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencode-portal/portal/internal/daemon"
)

func TestNewDaemonCmd_Defaults(t *testing.T) {
	t.Parallel()

	c, err := NewDaemonCmd(newBaseCmd())
	require.NoError(t, err)

	addr, err := c.Flags().GetString("addr")
	require.NoError(t, err)
	require.Equal(t, DefaultDaemonAddr, addr)

	interval, err := c.Flags().GetDuration("health-interval")
	require.NoError(t, err)
	require.Equal(t, daemon.DefaultHealthCheckInterval(), interval)

	concurrency, err := c.Flags().GetInt("health-concurrency")
	require.NoError(t, err)
	require.Equal(t, daemon.DefaultHealthCheckConcurrency(), concurrency)

	shutdown, err := c.Flags().GetDuration("shutdown-timeout")
	require.NoError(t, err)
	require.Equal(t, daemon.DefaultAPIShutdownTimeout(), shutdown)
}

func TestDaemonCmd_InvalidFlags(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		expectedError string
	}{
		{
			name:          "origin without enable",
			args:          []string{"--cors-allow-origin", "http://localhost:3000"},
			expectedError: "flags must be provided together or not at all (cors-allow-origin, cors-enable)",
		},
		{
			name:          "enable without origin",
			args:          []string{"--cors-enable"},
			expectedError: "flags must be provided together or not at all (cors-allow-origin, cors-enable)",
		},
		{
			name:          "invalid address",
			args:          []string{"--addr", "localhost"},
			expectedError: "invalid address format",
		},
		{
			name:          "invalid health interval",
			args:          []string{"--addr", "127.0.0.1:0", "--health-interval", "0s"},
			expectedError: "failed to create portal daemon instance",
		},
		{
			name:          "invalid shutdown timeout",
			args:          []string{"--addr", "127.0.0.1:0", "--shutdown-timeout", "-1s"},
			expectedError: "shutdown timeout must be positive",
		},
		{
			name:          "unexpected argument",
			args:          []string{"extra"},
			expectedError: "unknown command",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			useTempFiles(t)

			_, err := execute(t, newTestCmd(t, NewDaemonCmd), tc.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedError)
		})
	}
}

func TestDaemonCmd_ShutsDownWhenContextEnds(t *testing.T) {
	paths := useTempFiles(t)
	srv := newOpenCodeServer(t, true)
	seedRegistry(t, paths.registry, srv.URL, srv.URL)

	c := newTestCmd(t, NewDaemonCmd)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(300*time.Millisecond, cancel)

	out := &bytes.Buffer{}
	c.SetOut(out)
	c.SetErr(out)
	c.SetArgs([]string{
		"--addr", "127.0.0.1:0",
		"--cors-enable",
		"--cors-allow-origin", "http://localhost:3000",
		"--health-interval", "50ms",
	})

	require.NoError(t, c.ExecuteContext(ctx))
	require.Contains(t, out.String(), "portal daemon running.")
	require.Contains(t, out.String(), "http://127.0.0.1:0/api/v1")
	require.Contains(t, out.String(), paths.registry)
}
