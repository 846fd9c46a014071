package health

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opencode-portal/portal/internal/domain"
	"github.com/opencode-portal/portal/internal/errors"
	"github.com/opencode-portal/portal/internal/serverurl"
)

// maxBodyBytes limits how much of a health response body is decoded.
const maxBodyBytes = 64 * 1024

// Doer performs HTTP requests, *http.Client satisfies it.
// It lets callers decide on transport and platform specifics.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Prober checks whether an OpenCode server is reachable and reports itself healthy.
// NewProber should be used to create instances of Prober.
type Prober struct {
	doer    Doer
	timeout time.Duration
	path    string
}

// response is the body returned by the OpenCode health endpoint.
type response struct {
	Healthy bool   `json:"healthy"`
	Version string `json:"version"`
}

// NewProber returns a Prober which sends requests using the supplied Doer.
func NewProber(doer Doer, opt ...Option) (*Prober, error) {
	if doer == nil {
		return nil, fmt.Errorf("doer cannot be nil")
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	return &Prober{
		doer:    doer,
		timeout: opts.timeout,
		path:    opts.path,
	}, nil
}

// Probe performs one bounded request against the health endpoint of the server.
//
// A response that is not a success, or does not report healthy, returns a result with Healthy set to false
// and a nil error. Failure to complete the request returns an error wrapping errors.ErrServerUnreachable.
func (p *Prober) Probe(ctx context.Context, u serverurl.URL) (domain.HealthResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := u.String() + p.path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.HealthResult{}, fmt.Errorf("failed to create health request for '%s': %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.doer.Do(req)
	if err != nil {
		if stdErrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return domain.HealthResult{}, fmt.Errorf(
				"%w: health check timed out after %s: %w",
				errors.ErrServerUnreachable,
				p.timeout,
				context.DeadlineExceeded,
			)
		}
		return domain.HealthResult{}, fmt.Errorf("%w: %w", errors.ErrServerUnreachable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	result := domain.HealthResult{
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return result, nil
	}

	var body response
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		// Not the response we recognize from an OpenCode server.
		return result, nil
	}

	result.Healthy = body.Healthy
	result.Version = body.Version

	return result, nil
}

// Classify maps the outcome of a probe to a health status.
func Classify(result domain.HealthResult, err error) domain.HealthStatus {
	switch {
	case err != nil && stdErrors.Is(err, context.DeadlineExceeded):
		return domain.HealthStatusTimeout
	case err != nil:
		return domain.HealthStatusUnreachable
	case result.Healthy:
		return domain.HealthStatusOK
	default:
		return domain.HealthStatusUnhealthy
	}
}
