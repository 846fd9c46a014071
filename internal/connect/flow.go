// Package connect implements the flow that takes a user supplied server address,
// verifies the server is healthy and makes it the active server.
package connect

import (
	"context"
	stdErrors "errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/opencode-portal/portal/internal/contracts"
	"github.com/opencode-portal/portal/internal/domain"
	"github.com/opencode-portal/portal/internal/errors"
	"github.com/opencode-portal/portal/internal/health"
	"github.com/opencode-portal/portal/internal/serverurl"
)

// Prober checks whether a server is healthy.
type Prober interface {
	Probe(ctx context.Context, u serverurl.URL) (domain.HealthResult, error)
}

// Flow runs connection attempts, at most one at a time.
// NewFlow should be used to create instances of Flow.
type Flow struct {
	logger   hclog.Logger
	prober   Prober
	registry contracts.ServerRegistry
	defaults contracts.DefaultServerSetter
	monitor  contracts.HealthMonitor

	// busy guards against overlapping attempts mutating the registry.
	busy atomic.Bool

	mu      sync.RWMutex
	state   State
	message string
	url     serverurl.URL

	events chan Event
}

// NewFlow returns an idle Flow.
func NewFlow(deps Dependencies, opt ...Option) (*Flow, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies for connection flow: %w", err)
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, fmt.Errorf("invalid connection flow options: %w", err)
	}

	f := &Flow{
		logger:   deps.Logger.Named("connect"),
		prober:   deps.Prober,
		registry: deps.Registry,
		state:    StateIdle,
	}

	if !isNil(opts.DefaultServerSetter) {
		f.defaults = opts.DefaultServerSetter
	}
	if !isNil(opts.HealthMonitor) {
		f.monitor = opts.HealthMonitor
	}
	if opts.EventBuffer > 0 {
		f.events = make(chan Event, opts.EventBuffer)
	}

	return f, nil
}

// Events returns the queue of state transitions, or nil when events are disabled.
// Events are dropped rather than blocking the flow when the queue is full.
func (f *Flow) Events() <-chan Event {
	return f.events
}

// Status returns the current state of the flow.
func (f *Flow) Status() Status {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return Status{
		State:   f.state,
		Busy:    f.busy.Load(),
		Message: f.message,
		URL:     f.url,
	}
}

// State returns the current step of the flow.
func (f *Flow) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Busy reports whether a connection attempt is in flight.
func (f *Flow) Busy() bool {
	return f.busy.Load()
}

// Message returns the user facing message of the most recent failed attempt, if any.
func (f *Flow) Message() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.message
}

// Connect runs one connection attempt for the user supplied input.
//
// On success the normalized URL is returned after it has been saved as the default server (best-effort),
// added to the registry and made active. On failure the flow returns to idle with a user facing message
// available from Status, and the returned error wraps one of the errors package sentinels.
// When another attempt is in flight the call does nothing and returns errors.ErrConnectInProgress.
func (f *Flow) Connect(ctx context.Context, input string) (u serverurl.URL, err error) {
	if !f.busy.CompareAndSwap(false, true) {
		f.logger.Debug("Ignoring connection attempt, another attempt is in progress")
		return "", errors.ErrConnectInProgress
	}
	defer f.busy.Store(false)

	defer func() {
		if r := recover(); r != nil {
			msg := panicMessage(r)
			f.logger.Error("Unexpected failure while connecting", "error", msg)
			f.fail(msg)
			u, err = "", fmt.Errorf("unexpected failure while connecting: %s", msg)
		}
	}()

	f.begin()

	normalized, err := serverurl.Normalize(input)
	if err != nil {
		if stdErrors.Is(err, errors.ErrEmptyURL) {
			f.fail(MessageEmptyURL)
		} else {
			f.fail(MessageInvalidURL)
		}
		f.logger.Debug("Rejected server url", "input", input, "error", err)
		return "", err
	}

	f.transition(StateProbing, normalized, "")
	f.logger.Info("Checking server health", "url", normalized)

	result, err := f.prober.Probe(ctx, normalized)
	f.recordHealth(normalized, result, err)
	if err != nil {
		if !stdErrors.Is(err, errors.ErrServerUnreachable) {
			err = fmt.Errorf("%w: %w", errors.ErrServerUnreachable, err)
		}
		f.logger.Warn("Server health check failed", "url", normalized, "error", err)
		f.fail(err.Error())
		return "", err
	}
	if !result.Healthy {
		f.logger.Warn("Server is not healthy", "url", normalized, "status", result.StatusCode)
		f.fail(MessageUnreachable)
		return "", fmt.Errorf("%w: %s", errors.ErrServerUnhealthy, normalized)
	}

	f.transition(StatePersisting, normalized, "")
	f.persistDefault(ctx, normalized)

	if err := f.registry.Add(string(normalized)); err != nil {
		f.logger.Error("Failed to add server", "url", normalized, "error", err)
		f.fail(err.Error())
		return "", fmt.Errorf("failed to add server '%s': %w", normalized, err)
	}
	if err := f.registry.SetActive(string(normalized)); err != nil {
		f.logger.Error("Failed to set active server", "url", normalized, "error", err)
		f.fail(err.Error())
		return "", fmt.Errorf("failed to set active server '%s': %w", normalized, err)
	}

	f.transition(StateConnected, normalized, "")
	f.logger.Info("Connected to server", "url", normalized, "version", result.Version)

	return normalized, nil
}

// persistDefault saves the URL as the default server, failures are logged and otherwise ignored.
func (f *Flow) persistDefault(ctx context.Context, u serverurl.URL) {
	if f.defaults == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("Failed to save default server url", "url", u, "error", panicMessage(r))
		}
	}()

	if err := f.defaults.SetDefaultServerURL(ctx, string(u)); err != nil {
		f.logger.Warn("Failed to save default server url", "url", u, "error", err)
	}
}

func (f *Flow) recordHealth(u serverurl.URL, result domain.HealthResult, err error) {
	if f.monitor == nil {
		return
	}

	var latency *time.Duration
	if err == nil {
		latency = &result.Latency
	}

	f.monitor.Track(string(u))
	if updateErr := f.monitor.Update(string(u), health.Classify(result, err), latency); updateErr != nil {
		f.logger.Warn("Failed to record server health", "url", u, "error", updateErr)
	}
}

// begin starts a new attempt, clearing the message of any previous one.
func (f *Flow) begin() {
	f.mu.Lock()
	f.message = ""
	f.url = ""
	f.mu.Unlock()

	f.transition(StateValidating, "", "")
}

func (f *Flow) fail(message string) {
	f.mu.RLock()
	u := f.url
	f.mu.RUnlock()

	f.transition(StateIdle, u, message)
}

func (f *Flow) transition(to State, u serverurl.URL, message string) {
	f.mu.Lock()
	from := f.state
	f.state = to
	f.message = message
	if u != "" {
		f.url = u
	}
	f.mu.Unlock()

	f.logger.Trace("State transition", "from", from, "to", to)

	if f.events == nil {
		return
	}

	select {
	case f.events <- Event{From: from, To: to, URL: u, Message: message, At: time.Now()}:
	default:
		f.logger.Trace("Event queue full, dropping event", "from", from, "to", to)
	}
}

func panicMessage(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(r)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
