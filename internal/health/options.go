package health

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultPath is the well-known health endpoint of an OpenCode server.
	DefaultPath = "/global/health"

	// DefaultTimeout bounds a single health probe.
	DefaultTimeout = 3 * time.Second
)

// Option defines a functional option for configuring a Prober.
type Option func(*Options) error

// Options contains optional configuration for a Prober.
type Options struct {
	timeout time.Duration
	path    string
}

// NewOptions returns Options with defaults applied, followed by the supplied options in order.
func NewOptions(opts ...Option) (Options, error) {
	o := Options{
		timeout: DefaultTimeout,
		path:    DefaultPath,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return Options{}, err
		}
	}

	return o, nil
}

// WithTimeout sets the upper bound for a single probe.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", timeout)
		}
		o.timeout = timeout
		return nil
	}
}

// WithPath sets the health endpoint path, relative to the server URL.
func WithPath(path string) Option {
	return func(o *Options) error {
		path = strings.TrimSpace(path)
		if path == "" {
			return fmt.Errorf("health path cannot be empty")
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		o.path = path
		return nil
	}
}
