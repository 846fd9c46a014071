package options

import (
	"fmt"
	"net/http"

	"github.com/opencode-portal/portal/internal/client"
	"github.com/opencode-portal/portal/internal/health"
	"github.com/opencode-portal/portal/internal/opencode"
)

// CmdOption defines a functional option for configuring CmdOptions.
type CmdOption func(*CmdOptions) error

// CmdOptions contains the collaborators commands use to reach OpenCode servers.
// Tests replace them to avoid real network access.
type CmdOptions struct {
	// Doer sends health probes.
	Doer health.Doer

	// HealthOptions configure health probes.
	HealthOptions []health.Option

	// ClientFactory constructs cached OpenCode clients.
	ClientFactory client.Factory
}

func defaultOptions() CmdOptions {
	return CmdOptions{
		Doer: &http.Client{Timeout: health.DefaultTimeout},
		ClientFactory: func(baseURL string) (*opencode.Client, error) {
			return opencode.New(baseURL)
		},
	}
}

// NewOptions returns CmdOptions with defaults applied, followed by the supplied options in order.
func NewOptions(opt ...CmdOption) (CmdOptions, error) {
	opts := defaultOptions()

	for _, o := range opt {
		if o == nil {
			continue
		}
		if err := o(&opts); err != nil {
			return CmdOptions{}, err
		}
	}
	return opts, nil
}

// WithDoer sets the HTTP transport used for health probes.
func WithDoer(d health.Doer) CmdOption {
	return func(o *CmdOptions) error {
		if d == nil {
			return fmt.Errorf("doer cannot be nil")
		}
		o.Doer = d
		return nil
	}
}

// WithHealthOptions configures health probes.
func WithHealthOptions(opts ...health.Option) CmdOption {
	return func(o *CmdOptions) error {
		o.HealthOptions = append(o.HealthOptions, opts...)
		return nil
	}
}

// WithClientFactory sets the function used to construct OpenCode clients.
func WithClientFactory(f client.Factory) CmdOption {
	return func(o *CmdOptions) error {
		if f == nil {
			return fmt.Errorf("client factory cannot be nil")
		}
		o.ClientFactory = f
		return nil
	}
}
