package connect

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/opencode-portal/portal/internal/contracts"
)

// DefaultEventBuffer is the default capacity of the event queue.
const DefaultEventBuffer = 16

// Dependencies contains the required collaborators of a Flow.
type Dependencies struct {
	// Logger for connection flow operations.
	Logger hclog.Logger

	// Prober checks the health of a candidate server.
	Prober Prober

	// Registry records servers that were connected to successfully.
	Registry contracts.ServerRegistry
}

// Validate ensures all required dependencies are provided.
func (d Dependencies) Validate() error {
	if isNil(d.Logger) {
		return fmt.Errorf("logger cannot be nil")
	}
	if isNil(d.Prober) {
		return fmt.Errorf("prober cannot be nil")
	}
	if isNil(d.Registry) {
		return fmt.Errorf("registry cannot be nil")
	}
	return nil
}

// Option defines a functional option for configuring a Flow.
type Option func(*Options) error

// Options contains optional configuration for a Flow.
type Options struct {
	// DefaultServerSetter persists a successfully connected server as the default, it may be nil.
	DefaultServerSetter contracts.DefaultServerSetter

	// HealthMonitor records the outcome of each probe, it may be nil.
	HealthMonitor contracts.HealthMonitor

	// EventBuffer is the capacity of the event queue, zero disables events.
	EventBuffer int
}

// NewOptions returns Options with defaults applied, followed by the supplied options in order.
func NewOptions(opts ...Option) (Options, error) {
	o := Options{
		EventBuffer: DefaultEventBuffer,
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

// WithDefaultServerSetter configures where a connected server is saved as the default.
func WithDefaultServerSetter(s contracts.DefaultServerSetter) Option {
	return func(o *Options) error {
		o.DefaultServerSetter = s
		return nil
	}
}

// WithHealthMonitor configures where probe outcomes are recorded.
func WithHealthMonitor(m contracts.HealthMonitor) Option {
	return func(o *Options) error {
		o.HealthMonitor = m
		return nil
	}
}

// WithEventBuffer sets the capacity of the event queue.
func WithEventBuffer(size int) Option {
	return func(o *Options) error {
		if size < 0 {
			return fmt.Errorf("event buffer cannot be negative, got %d", size)
		}
		o.EventBuffer = size
		return nil
	}
}
