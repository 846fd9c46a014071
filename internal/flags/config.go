package flags

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/opencode-portal/portal/internal/client"
	"github.com/opencode-portal/portal/internal/files"
	"github.com/opencode-portal/portal/internal/settings"
)

const (
	// Env vars
	EnvVarRegistryFile = "PORTAL_REGISTRY_FILE"
	EnvVarSettingsFile = "PORTAL_SETTINGS_FILE"
	EnvVarPortalConfig = "PORTAL_CONFIG"
	EnvVarLogPath      = "PORTAL_LOG_PATH"
	EnvVarLogLevel     = "PORTAL_LOG_LEVEL"

	// Defaults
	DefaultLogPath  = ""
	DefaultLogLevel = "info"

	// Flag names
	FlagNameRegistryFile = "registry-file"
	FlagNameSettingsFile = "settings-file"
	FlagNamePortalConfig = "portal-config"
	FlagNameLogPath      = "log-path"
	FlagNameLogLevel     = "log-level"
)

var (
	RegistryFile string
	SettingsFile string
	PortalConfig string
	LogPath      string
	LogLevel     string
)

// InitFlags registers the global flags on fs.
// Values already set take precedence, followed by environment variables, then defaults.
func InitFlags(fs *pflag.FlagSet) error {
	if err := initRegistryFile(fs); err != nil {
		return err
	}
	if err := initSettingsFile(fs); err != nil {
		return err
	}
	if err := initPortalConfig(fs); err != nil {
		return err
	}
	initLogger(fs)

	return nil
}

func initRegistryFile(fs *pflag.FlagSet) error {
	if RegistryFile == "" {
		v, err := envOrDefault(EnvVarRegistryFile, files.DefaultRegistryPath)
		if err != nil {
			return err
		}
		RegistryFile = v
	}
	fs.StringVar(&RegistryFile, FlagNameRegistryFile, RegistryFile, "path to the server registry file")

	return nil
}

func initSettingsFile(fs *pflag.FlagSet) error {
	if SettingsFile == "" {
		v, err := envOrDefault(EnvVarSettingsFile, func() (string, error) {
			return files.DefaultSettingsPath(settings.FileName)
		})
		if err != nil {
			return err
		}
		SettingsFile = v
	}
	fs.StringVar(&SettingsFile, FlagNameSettingsFile, SettingsFile, "path to the default-server settings file")

	return nil
}

func initPortalConfig(fs *pflag.FlagSet) error {
	if PortalConfig == "" {
		v, err := envOrDefault(EnvVarPortalConfig, client.DefaultOverridePath)
		if err != nil {
			return err
		}
		PortalConfig = v
	}
	fs.StringVar(&PortalConfig, FlagNamePortalConfig, PortalConfig, "path to the hostname override file")

	return nil
}

func initLogger(fs *pflag.FlagSet) {
	if LogPath == "" {
		if env := strings.TrimSpace(os.Getenv(EnvVarLogPath)); env != "" {
			LogPath = env
		} else {
			LogPath = DefaultLogPath
		}
	}
	fs.StringVar(&LogPath, FlagNameLogPath, LogPath, "path to generated log file")

	if LogLevel == "" {
		if env := strings.TrimSpace(os.Getenv(EnvVarLogLevel)); env != "" {
			LogLevel = strings.ToLower(env)
		} else {
			LogLevel = DefaultLogLevel
		}
	}
	fs.StringVar(&LogLevel, FlagNameLogLevel, LogLevel, "log level for portal logs")
}

func envOrDefault(envVar string, fallback func() (string, error)) (string, error) {
	if env := strings.TrimSpace(os.Getenv(envVar)); env != "" {
		return env, nil
	}

	v, err := fallback()
	if err != nil {
		return "", fmt.Errorf("failed to resolve default for %s: %w", envVar, err)
	}

	return v, nil
}
