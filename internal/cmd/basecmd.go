package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/opencode-portal/portal/internal/client"
	"github.com/opencode-portal/portal/internal/files"
	"github.com/opencode-portal/portal/internal/flags"
	"github.com/opencode-portal/portal/internal/perms"
	"github.com/opencode-portal/portal/internal/registry"
	"github.com/opencode-portal/portal/internal/settings"
)

// BaseCmd carries state shared by every command, such as the logger.
type BaseCmd struct {
	logger hclog.Logger
}

// SetLogger updates the command's logger.
func (c *BaseCmd) SetLogger(logger hclog.Logger) {
	c.logger = logger
}

// Logger returns the logger for the command, creating it from flags on first use.
// Output is discarded unless a log path is configured.
func (c *BaseCmd) Logger() (hclog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}

	logLevel := strings.ToLower(strings.TrimSpace(flags.LogLevel))
	if logLevel == "" {
		logLevel = flags.DefaultLogLevel
	}
	if hclog.LevelFromString(logLevel) == hclog.NoLevel {
		return nil, fmt.Errorf("invalid log level '%s'", flags.LogLevel)
	}

	var output io.Writer = io.Discard
	if logPath := strings.TrimSpace(flags.LogPath); logPath != "" {
		if err := files.EnsureAtLeastRegularDir(filepath.Dir(logPath)); err != nil {
			return nil, fmt.Errorf("failed to prepare log directory: %w", err)
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, perms.RegularFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file (%s): %w", logPath, err)
		}
		output = f
	}

	c.logger = hclog.New(&hclog.LoggerOptions{
		Name:   AppName(),
		Level:  hclog.LevelFromString(logLevel),
		Output: output,
	})

	return c.logger, nil
}

// LoadRegistry loads the server registry from the configured registry file.
func (c *BaseCmd) LoadRegistry() (*registry.Registry, error) {
	reg, err := registry.Load(flags.RegistryFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load server registry: %w", err)
	}
	return reg, nil
}

// SettingsStore returns the store for the configured default-server settings file.
func (c *BaseCmd) SettingsStore() (*settings.Store, error) {
	return settings.NewStore(flags.SettingsFile)
}

// OverrideResolver returns a hostname resolver for the configured override file.
func (c *BaseCmd) OverrideResolver() (*client.OverrideResolver, error) {
	logger, err := c.Logger()
	if err != nil {
		return nil, err
	}
	return client.NewOverrideResolver(logger, flags.PortalConfig)
}

// RequireTogether returns an error when only some of the named flags were set on cmd.
func (c *BaseCmd) RequireTogether(cmd *cobra.Command, names ...string) error {
	set := 0
	for _, name := range names {
		if cmd.Flags().Changed(name) {
			set++
		}
	}

	if set == 0 || set == len(names) {
		return nil
	}

	sorted := slices.Clone(names)
	slices.Sort(sorted)

	return fmt.Errorf("flags must be provided together or not at all (%s)", strings.Join(sorted, ", "))
}
