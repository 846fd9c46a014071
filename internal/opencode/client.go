// Package opencode provides the client handle used to talk to an OpenCode server.
package opencode

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/opencode-portal/portal/internal/domain"
	"github.com/opencode-portal/portal/internal/health"
	"github.com/opencode-portal/portal/internal/serverurl"
)

// DefaultRequestTimeout is the timeout of the default HTTP client.
const DefaultRequestTimeout = 30 * time.Second

// Client is bound to a single OpenCode server base URL.
// New should be used to create instances of Client.
type Client struct {
	baseURL    serverurl.URL
	httpClient *http.Client
	prober     *health.Prober
}

// Option defines a functional option for configuring a Client.
type Option func(*options) error

type options struct {
	httpClient    *http.Client
	healthOptions []health.Option
}

// WithHTTPClient sets the HTTP client used for requests to the server.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) error {
		if c == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		o.httpClient = c
		return nil
	}
}

// WithHealthOptions configures the health probe used by Client.Health.
func WithHealthOptions(opts ...health.Option) Option {
	return func(o *options) error {
		o.healthOptions = append(o.healthOptions, opts...)
		return nil
	}
}

// New returns a Client for the server at baseURL.
func New(baseURL string, opt ...Option) (*Client, error) {
	u, err := serverurl.Normalize(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url '%s': %w", baseURL, err)
	}

	o := options{
		httpClient: &http.Client{Timeout: DefaultRequestTimeout},
	}
	for _, fn := range opt {
		if fn == nil {
			continue
		}
		if err := fn(&o); err != nil {
			return nil, err
		}
	}

	prober, err := health.NewProber(o.httpClient, o.healthOptions...)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL:    u,
		httpClient: o.httpClient,
		prober:     prober,
	}, nil
}

// BaseURL returns the server URL this client is bound to.
func (c *Client) BaseURL() serverurl.URL {
	return c.baseURL
}

// HTTPClient returns the HTTP client used for requests to the server.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Health probes the server this client is bound to.
func (c *Client) Health(ctx context.Context) (domain.HealthResult, error) {
	return c.prober.Probe(ctx, c.baseURL)
}
