package cmd

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmdopts "github.com/opencode-portal/portal/internal/cmd/options"
	"github.com/opencode-portal/portal/internal/cmd/output"
	"github.com/opencode-portal/portal/internal/opencode"
)

// serverPort returns the port srv listens on.
func serverPort(t *testing.T, srv *httptest.Server) int {
	t.Helper()

	_, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return port
}

// writeOverride maps port to hostname in the override file at path.
func writeOverride(t *testing.T, path string, port int, hostname string) {
	t.Helper()

	content := fmt.Sprintf(`{"instances":[{"opencodePort":%d,"hostname":%q}]}`, port, hostname)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestClientCmd(t *testing.T) {
	healthy := newOpenCodeServer(t, true)
	unhealthy := newOpenCodeServer(t, false)
	healthyPort := serverPort(t, healthy)
	unhealthyPort := serverPort(t, unhealthy)

	tests := []struct {
		name             string
		port             int
		args             []string
		override         bool
		expectedOutputs  []string
		unexpectedOutput string
		expectedError    string
	}{
		{
			name:     "healthy server through override",
			port:     healthyPort,
			args:     []string{strconv.Itoa(healthyPort)},
			override: true,
			expectedOutputs: []string{
				fmt.Sprintf("Key:      127.0.0.1:%d", healthyPort),
				fmt.Sprintf("Base URL: http://127.0.0.1:%d", healthyPort),
				"Health:   ok",
				"Version:  1.0.0",
			},
		},
		{
			name:     "unhealthy server",
			port:     unhealthyPort,
			args:     []string{strconv.Itoa(unhealthyPort)},
			override: true,
			expectedOutputs: []string{
				"Health:   unhealthy",
			},
		},
		{
			name:     "probe disabled",
			port:     healthyPort,
			args:     []string{strconv.Itoa(healthyPort), "--probe=false"},
			override: true,
			expectedOutputs: []string{
				fmt.Sprintf("Key:      127.0.0.1:%d", healthyPort),
			},
			unexpectedOutput: "Health:",
		},
		{
			name: "no override uses localhost",
			port: 4096,
			args: []string{"4096", "--probe=false"},
			expectedOutputs: []string{
				"Key:      localhost:4096",
				"Base URL: http://localhost:4096",
			},
		},
		{
			name:          "non numeric port",
			args:          []string{"abc"},
			expectedError: "invalid port 'abc'",
		},
		{
			name:          "port out of range",
			args:          []string{"70000", "--probe=false"},
			expectedError: "port 70000 out of range",
		},
		{
			name:          "missing port",
			args:          []string{},
			expectedError: "accepts 1 arg(s)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			paths := useTempFiles(t)
			if tc.override {
				writeOverride(t, paths.overrides, tc.port, "127.0.0.1")
			}

			out, err := execute(t, newTestCmd(t, NewClientCmd), tc.args...)

			if tc.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedError)
				return
			}

			require.NoError(t, err)
			for _, expected := range tc.expectedOutputs {
				assert.Contains(t, out, expected)
			}
			if tc.unexpectedOutput != "" {
				assert.NotContains(t, out, tc.unexpectedOutput)
			}
		})
	}
}

func TestClientCmd_JSON(t *testing.T) {
	paths := useTempFiles(t)
	srv := newOpenCodeServer(t, true)
	port := serverPort(t, srv)
	writeOverride(t, paths.overrides, port, "127.0.0.1")

	out, err := execute(t, newTestCmd(t, NewClientCmd), strconv.Itoa(port), "--format", "json")
	require.NoError(t, err)

	var payload output.ResultPayload[ClientItem]
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Equal(t, fmt.Sprintf("127.0.0.1:%d", port), payload.Result.Key)
	require.Equal(t, fmt.Sprintf("http://127.0.0.1:%d", port), payload.Result.BaseURL)
	require.Equal(t, "ok", payload.Result.Status)
	require.Equal(t, "1.0.0", payload.Result.Version)
	require.NotEmpty(t, payload.Result.Latency)
}

func TestClientCmd_JSONError(t *testing.T) {
	useTempFiles(t)

	out, err := execute(t, newTestCmd(t, NewClientCmd), "abc", "--format", "json")
	require.NoError(t, err)

	var payload output.ErrorPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Equal(t, "invalid port 'abc'", payload.Error)
}

func TestClientCmd_FactoryError(t *testing.T) {
	useTempFiles(t)

	c, err := NewClientCmd(newBaseCmd(), cmdopts.WithClientFactory(func(string) (*opencode.Client, error) {
		return nil, fmt.Errorf("boom")
	}))
	require.NoError(t, err)

	_, err = execute(t, c, "4096", "--probe=false")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}
