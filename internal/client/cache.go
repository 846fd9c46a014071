package client

import (
	"cmp"
	"fmt"
	"net"
	"reflect"
	"slices"
	"strconv"

	"github.com/hashicorp/go-hclog"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/opencode-portal/portal/internal/contracts"
	"github.com/opencode-portal/portal/internal/errors"
	"github.com/opencode-portal/portal/internal/opencode"
	"github.com/opencode-portal/portal/internal/serverurl"
)

// Factory constructs a client handle bound to baseURL.
type Factory func(baseURL string) (*opencode.Client, error)

// Entry describes a cached client.
type Entry struct {
	Key     string
	BaseURL serverurl.URL
}

// Cache holds at most one client per resolved "hostname:port" key.
// Entries never expire, they are only removed by Clear or ClearAll.
// It is safe for concurrent use by multiple goroutines.
// NewCache should be used to create instances of Cache.
type Cache struct {
	logger   hclog.Logger
	resolver contracts.HostnameResolver
	factory  Factory
	store    *gocache.Cache

	// inflight ensures a single construction per key when callers race on a cache miss.
	inflight singleflight.Group
}

// Option defines a functional option for configuring a Cache.
type Option func(*Options) error

// Options contains optional configuration for a Cache.
type Options struct {
	factory Factory
}

// NewOptions returns Options with defaults applied, followed by the supplied options in order.
func NewOptions(opts ...Option) (Options, error) {
	o := Options{
		factory: func(baseURL string) (*opencode.Client, error) {
			return opencode.New(baseURL)
		},
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

// WithFactory sets the function used to construct clients.
func WithFactory(f Factory) Option {
	return func(o *Options) error {
		if f == nil {
			return fmt.Errorf("client factory cannot be nil")
		}
		o.factory = f
		return nil
	}
}

// NewCache returns an empty Cache resolving hostnames with resolver.
func NewCache(logger hclog.Logger, resolver contracts.HostnameResolver, opt ...Option) (*Cache, error) {
	if logger == nil || reflect.ValueOf(logger).IsNil() {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if resolver == nil || reflect.ValueOf(resolver).IsNil() {
		return nil, fmt.Errorf("hostname resolver cannot be nil")
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	return &Cache{
		logger:   logger.Named("clients"),
		resolver: resolver,
		factory:  opts.factory,
		store:    gocache.New(gocache.NoExpiration, 0),
	}, nil
}

// Key returns the cache key for a hostname and port.
func Key(hostname string, port int) string {
	return hostname + ":" + strconv.Itoa(port)
}

// KeyFor returns the cache key port currently resolves to.
func (c *Cache) KeyFor(port int) (string, error) {
	if err := validatePort(port); err != nil {
		return "", err
	}
	return Key(c.resolver.HostnameForPort(port), port), nil
}

// Get returns the client for port, constructing and caching it on first use.
// Repeated calls resolving to the same key return the same client.
func (c *Cache) Get(port int) (*opencode.Client, error) {
	cl, _, err := c.GetWithKey(port)
	return cl, err
}

// GetWithKey is like Get but also returns the key the client is cached under.
// The hostname is resolved once, so the key always matches the returned client.
func (c *Cache) GetWithKey(port int) (*opencode.Client, string, error) {
	if err := validatePort(port); err != nil {
		return nil, "", err
	}

	hostname := c.resolver.HostnameForPort(port)
	key := Key(hostname, port)

	if cl, ok := c.lookup(key); ok {
		return cl, key, nil
	}

	v, err, _ := c.inflight.Do(key, func() (any, error) {
		// Another caller may have stored the client between our lookup and acquiring the key.
		if cl, ok := c.lookup(key); ok {
			return cl, nil
		}

		baseURL := "http://" + net.JoinHostPort(hostname, strconv.Itoa(port))
		cl, err := c.factory(baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create client for '%s': %w", baseURL, err)
		}

		c.store.Set(key, cl, gocache.NoExpiration)
		c.logger.Debug("Created client", "key", key, "url", baseURL)

		return cl, nil
	})
	if err != nil {
		return nil, "", err
	}

	return v.(*opencode.Client), key, nil
}

// Clear removes the client for port, using the hostname port currently resolves to.
func (c *Cache) Clear(port int) error {
	if err := validatePort(port); err != nil {
		return err
	}

	key := Key(c.resolver.HostnameForPort(port), port)
	c.store.Delete(key)
	c.logger.Debug("Cleared client", "key", key)

	return nil
}

// ClearAll removes every cached client.
func (c *Cache) ClearAll() {
	c.store.Flush()
	c.logger.Debug("Cleared all clients")
}

// Len returns the number of cached clients.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}

// List returns the cached clients ordered by key.
func (c *Cache) List() []Entry {
	items := c.store.Items()

	entries := make([]Entry, 0, len(items))
	for key, item := range items {
		cl, ok := item.Object.(*opencode.Client)
		if !ok {
			continue
		}
		entries = append(entries, Entry{Key: key, BaseURL: cl.BaseURL()})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.Key, b.Key)
	})

	return entries
}

func (c *Cache) lookup(key string) (*opencode.Client, bool) {
	v, found := c.store.Get(key)
	if !found {
		return nil, false
	}

	cl, ok := v.(*opencode.Client)
	if !ok {
		c.logger.Error("Unexpected value in client cache", "key", key)
		return nil, false
	}

	return cl, true
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: port %d out of range", errors.ErrBadRequest, port)
	}
	return nil
}
