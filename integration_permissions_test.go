package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opencode-portal/portal/internal/cmd"
	"github.com/opencode-portal/portal/internal/files"
	"github.com/opencode-portal/portal/internal/flags"
	"github.com/opencode-portal/portal/internal/perms"
	"github.com/opencode-portal/portal/internal/registry"
	"github.com/opencode-portal/portal/internal/settings"
)

// TestRegistryFilePermissions verifies that the server registry and its directory
// are created with regular permissions.
func TestRegistryFilePermissions(t *testing.T) {
	t.Parallel()

	registryDir := filepath.Join(t.TempDir(), "portal")
	registryPath := filepath.Join(registryDir, "servers.toml")

	reg, err := registry.Load(registryPath)
	require.NoError(t, err)
	require.NoError(t, reg.Add("http://localhost:4096"))

	info, err := os.Stat(registryPath)
	require.NoError(t, err)
	require.False(t, info.IsDir())
	require.Equal(t, perms.RegularFile, info.Mode().Perm(),
		"Registry file should be created with regular permissions (0644)")

	dirInfo, err := os.Stat(registryDir)
	require.NoError(t, err)
	require.True(t, dirInfo.IsDir())
	require.Equal(t, perms.RegularDir, dirInfo.Mode().Perm(),
		"Registry directory should be created with regular permissions (0755)")
}

// TestSettingsFilePermissions verifies that the settings file, which is shared with
// the OpenCode desktop app, and a directory created for it are only accessible by their owner.
func TestSettingsFilePermissions(t *testing.T) {
	t.Parallel()

	settingsDir := filepath.Join(t.TempDir(), "opencode")
	settingsPath := filepath.Join(settingsDir, settings.FileName)

	store, err := settings.NewStore(settingsPath)
	require.NoError(t, err)
	require.NoError(t, store.SetDefaultServerURL(context.Background(), "http://localhost:4096"))

	info, err := os.Stat(settingsPath)
	require.NoError(t, err)
	require.False(t, info.IsDir())
	require.Equal(t, perms.SecureFile, info.Mode().Perm(),
		"Settings file should be written with secure permissions (0600)")

	dirInfo, err := os.Stat(settingsDir)
	require.NoError(t, err)
	require.Equal(t, perms.SecureDir, dirInfo.Mode().Perm(),
		"Settings directory created by portal should have secure permissions (0700)")

	// Rewrites keep the permissions.
	require.NoError(t, store.SetDefaultServerURL(context.Background(), "http://localhost:5000"))
	info, err = os.Stat(settingsPath)
	require.NoError(t, err)
	require.Equal(t, perms.SecureFile, info.Mode().Perm())
}

// TestLogFilePermissions verifies that log files opened by commands
// are created with regular permissions.
func TestLogFilePermissions(t *testing.T) {
	prevPath, prevLevel := flags.LogPath, flags.LogLevel
	t.Cleanup(func() {
		flags.LogPath = prevPath
		flags.LogLevel = prevLevel
	})

	logDir := filepath.Join(t.TempDir(), "logs")
	flags.LogPath = filepath.Join(logDir, "portal.log")
	flags.LogLevel = "debug"

	logger, err := (&cmd.BaseCmd{}).Logger()
	require.NoError(t, err)
	logger.Info("test log entry")

	info, err := os.Stat(flags.LogPath)
	require.NoError(t, err)
	require.False(t, info.IsDir())
	require.Equal(t, perms.RegularFile, info.Mode().Perm(),
		"Log file should be created with regular permissions (0644)")

	dirInfo, err := os.Stat(logDir)
	require.NoError(t, err)
	require.Equal(t, perms.RegularDir, dirInfo.Mode().Perm())
}

// TestPermissionConsistency verifies that directories created for portal files
// accept regular permissions and reject anything looser.
func TestPermissionConsistency(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()

	tests := map[string]struct {
		perm    os.FileMode
		wantErr bool
	}{
		"regular": {perm: perms.RegularDir},
		"secure":  {perm: perms.SecureDir},
		"loose":   {perm: 0o777, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := filepath.Join(tempDir, name)
			require.NoError(t, os.Mkdir(dir, tc.perm))
			// Mkdir is subject to the umask.
			require.NoError(t, os.Chmod(dir, tc.perm))

			err := files.EnsureAtLeastRegularDir(dir)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
