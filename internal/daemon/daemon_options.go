package daemon

import (
	"fmt"
	"strings"
	"time"
)

// Options contains optional configuration for the daemon.
// NewOptions should be used to create instances of Options.
type Options struct {
	// APIOptions contains functional options for the API server.
	APIOptions []APIOption

	// HealthCheckInterval specifies how often known servers are probed.
	HealthCheckInterval time.Duration

	// HealthCheckConcurrency limits how many servers are probed at once.
	HealthCheckConcurrency int

	// OverridePath is the hostname override file to watch, cached clients are cleared when it changes.
	// Empty disables watching.
	OverridePath string
}

// Option defines a functional option for configuring Options.
// Options are applied in order, with later options overriding earlier ones.
type Option func(*Options) error

// NewOptions creates Options with optional configurations applied.
func NewOptions(opts ...Option) (Options, error) {
	options := defaultOptions()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&options); err != nil {
			return Options{}, err
		}
	}

	return options, nil
}

// WithAPIOptions configures API server options.
// Replaces all previous API configuration including CORS settings.
func WithAPIOptions(apiOpts ...APIOption) Option {
	return func(o *Options) error {
		o.APIOptions = apiOpts
		return nil
	}
}

// WithHealthCheckInterval configures how often known servers are probed.
func WithHealthCheckInterval(interval time.Duration) Option {
	return func(o *Options) error {
		if interval <= 0 {
			return fmt.Errorf("health check interval must be positive, got %v", interval)
		}
		o.HealthCheckInterval = interval
		return nil
	}
}

// WithHealthCheckConcurrency limits how many servers are probed at once.
func WithHealthCheckConcurrency(n int) Option {
	return func(o *Options) error {
		if n <= 0 {
			return fmt.Errorf("health check concurrency must be positive, got %d", n)
		}
		o.HealthCheckConcurrency = n
		return nil
	}
}

// WithOverridePath configures the hostname override file to watch.
func WithOverridePath(path string) Option {
	return func(o *Options) error {
		path = strings.TrimSpace(path)
		if path == "" {
			return fmt.Errorf("override path cannot be empty")
		}
		o.OverridePath = path
		return nil
	}
}

// DefaultHealthCheckInterval is the default interval for health checks.
func DefaultHealthCheckInterval() time.Duration {
	return 30 * time.Second
}

// DefaultHealthCheckConcurrency is the default number of servers probed at once.
func DefaultHealthCheckConcurrency() int {
	return 4
}

func defaultOptions() Options {
	return Options{
		HealthCheckInterval:    DefaultHealthCheckInterval(),
		HealthCheckConcurrency: DefaultHealthCheckConcurrency(),
	}
}
