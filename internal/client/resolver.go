package client

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/xeipuuv/gojsonschema"
)

const (
	// DefaultHostname is used when no usable override exists for a port.
	DefaultHostname = "localhost"

	// WildcardAddress is a bind address, never a usable hostname to connect to.
	WildcardAddress = "0.0.0.0"

	// DefaultOverrideFileName is the name of the override file in the user's home directory.
	DefaultOverrideFileName = ".portal.json"
)

// overrideSchema describes the shape of the override file as a whole.
// Entries are left unconstrained, a malformed entry only hides itself.
const overrideSchema = `{
  "type": "object",
  "properties": {
    "instances": { "type": "array" }
  }
}`

var compiledOverrideSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(overrideSchema))
})

type overrideConfig struct {
	Instances []json.RawMessage `json:"instances"`
}

type overrideInstance struct {
	OpencodePort json.RawMessage `json:"opencodePort"`
	Hostname     json.RawMessage `json:"hostname"`
}

// OverrideResolver resolves hostnames from a JSON override file.
// The file is read on every lookup, so edits take effect without a restart.
// NewOverrideResolver should be used to create instances of OverrideResolver.
type OverrideResolver struct {
	logger hclog.Logger
	path   string
}

// DefaultOverridePath returns the location of the override file in the user's home directory.
func DefaultOverridePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, DefaultOverrideFileName), nil
}

// NewOverrideResolver returns a resolver reading the override file at path.
func NewOverrideResolver(logger hclog.Logger, path string) (*OverrideResolver, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("override path cannot be empty")
	}

	return &OverrideResolver{
		logger: logger.Named("overrides"),
		path:   path,
	}, nil
}

// Path returns the location of the override file.
func (r *OverrideResolver) Path() string {
	return r.path
}

// HostnameForPort returns the hostname of the first override entry for port, lowercased.
// A missing, unreadable or malformed override file, a missing entry, and an entry for the
// wildcard address all resolve to DefaultHostname.
func (r *OverrideResolver) HostnameForPort(port int) string {
	hostname, err := r.lookup(port)
	if err != nil {
		if stdErrors.Is(err, os.ErrNotExist) {
			r.logger.Trace("No override file", "path", r.path)
		} else {
			r.logger.Debug("Ignoring override file", "path", r.path, "error", err)
		}
		return DefaultHostname
	}

	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" || hostname == WildcardAddress {
		return DefaultHostname
	}

	return hostname
}

func (r *OverrideResolver) lookup(port int) (string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return "", err
	}

	schema, err := compiledOverrideSchema()
	if err != nil {
		return "", fmt.Errorf("invalid override schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return "", fmt.Errorf("override file could not be parsed: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return "", fmt.Errorf("override file is invalid: %s", strings.Join(details, "; "))
	}

	var cfg overrideConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("override file could not be decoded: %w", err)
	}

	for i, raw := range cfg.Instances {
		var inst overrideInstance
		if err := json.Unmarshal(raw, &inst); err != nil {
			r.logger.Debug("Skipping override entry", "index", i, "error", err)
			continue
		}

		var p float64
		if err := json.Unmarshal(inst.OpencodePort, &p); err != nil || p != float64(port) {
			continue
		}

		// The first entry for the port decides, even when its hostname is unusable.
		var hostname string
		if err := json.Unmarshal(inst.Hostname, &hostname); err != nil {
			r.logger.Debug("Override entry has no usable hostname", "port", port, "error", err)
			return "", nil
		}
		return hostname, nil
	}

	return "", nil
}
