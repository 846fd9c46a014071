package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

func writeOverrides(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), DefaultOverrideFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestNewOverrideResolver(t *testing.T) {
	t.Parallel()

	_, err := NewOverrideResolver(nil, "/tmp/x.json")
	require.EqualError(t, err, "logger cannot be nil")

	_, err = NewOverrideResolver(hclog.NewNullLogger(), " ")
	require.EqualError(t, err, "override path cannot be empty")

	r, err := NewOverrideResolver(hclog.NewNullLogger(), " /tmp/x.json ")
	require.NoError(t, err)
	require.Equal(t, "/tmp/x.json", r.Path())
}

func TestOverrideResolver_HostnameForPort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content *string
		port    int
		want    string
	}{
		{
			name:    "missing file",
			content: nil,
			port:    4096,
			want:    DefaultHostname,
		},
		{
			name:    "matching override",
			content: ptr(`{"instances":[{"opencodePort":4096,"hostname":"192.168.1.20"}]}`),
			port:    4096,
			want:    "192.168.1.20",
		},
		{
			name:    "first match wins",
			content: ptr(`{"instances":[{"opencodePort":4096,"hostname":"first"},{"opencodePort":4096,"hostname":"second"}]}`),
			port:    4096,
			want:    "first",
		},
		{
			name:    "no matching port",
			content: ptr(`{"instances":[{"opencodePort":5000,"hostname":"192.168.1.20"}]}`),
			port:    4096,
			want:    DefaultHostname,
		},
		{
			name:    "wildcard address ignored",
			content: ptr(`{"instances":[{"opencodePort":4096,"hostname":"0.0.0.0"}]}`),
			port:    4096,
			want:    DefaultHostname,
		},
		{
			name:    "empty hostname ignored",
			content: ptr(`{"instances":[{"opencodePort":4096,"hostname":""}]}`),
			port:    4096,
			want:    DefaultHostname,
		},
		{
			name:    "missing instances",
			content: ptr(`{"other":true}`),
			port:    4096,
			want:    DefaultHostname,
		},
		{
			name:    "malformed json",
			content: ptr(`{"instances":[`),
			port:    4096,
			want:    DefaultHostname,
		},
		{
			name:    "wrong types",
			content: ptr(`{"instances":[{"opencodePort":"4096","hostname":"remote"}]}`),
			port:    4096,
			want:    DefaultHostname,
		},
		{
			name:    "malformed entry for another port",
			content: ptr(`{"instances":[{"opencodePort":4096,"hostname":"box.lan"},{"opencodePort":"5000","hostname":null}]}`),
			port:    4096,
			want:    "box.lan",
		},
		{
			name:    "non object entries skipped",
			content: ptr(`{"instances":[42,"text",null,{"opencodePort":4096,"hostname":"box.lan"}]}`),
			port:    4096,
			want:    "box.lan",
		},
		{
			name:    "matching entry with non string hostname",
			content: ptr(`{"instances":[{"opencodePort":4096,"hostname":7},{"opencodePort":4096,"hostname":"later"}]}`),
			port:    4096,
			want:    DefaultHostname,
		},
		{
			name:    "matching entry without hostname",
			content: ptr(`{"instances":[{"opencodePort":4096}]}`),
			port:    4096,
			want:    DefaultHostname,
		},
		{
			name:    "hostname lowercased",
			content: ptr(`{"instances":[{"opencodePort":4096,"hostname":" Box.LAN "}]}`),
			port:    4096,
			want:    "box.lan",
		},
		{
			name:    "instances not an array",
			content: ptr(`{"instances":{"opencodePort":4096,"hostname":"box.lan"}}`),
			port:    4096,
			want:    DefaultHostname,
		},
		{
			name:    "top level array",
			content: ptr(`[]`),
			port:    4096,
			want:    DefaultHostname,
		},
		{
			name:    "empty file",
			content: ptr(``),
			port:    4096,
			want:    DefaultHostname,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), DefaultOverrideFileName)
			if tc.content != nil {
				path = writeOverrides(t, *tc.content)
			}

			r, err := NewOverrideResolver(hclog.NewNullLogger(), path)
			require.NoError(t, err)
			require.Equal(t, tc.want, r.HostnameForPort(tc.port))
		})
	}
}

func TestOverrideResolver_UnreadableFile(t *testing.T) {
	t.Parallel()

	// A directory in place of the file cannot be read as one.
	r, err := NewOverrideResolver(hclog.NewNullLogger(), t.TempDir())
	require.NoError(t, err)
	require.Equal(t, DefaultHostname, r.HostnameForPort(4096))
}

func TestOverrideResolver_ReadsFileOnEveryLookup(t *testing.T) {
	t.Parallel()

	path := writeOverrides(t, `{"instances":[{"opencodePort":4096,"hostname":"before"}]}`)
	r, err := NewOverrideResolver(hclog.NewNullLogger(), path)
	require.NoError(t, err)
	require.Equal(t, "before", r.HostnameForPort(4096))

	require.NoError(t, os.WriteFile(path, []byte(`{"instances":[{"opencodePort":4096,"hostname":"after"}]}`), 0o644))
	require.Equal(t, "after", r.HostnameForPort(4096))
}

func ptr[T any](v T) *T {
	return &v
}
