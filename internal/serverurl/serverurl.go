// Package serverurl validates and canonicalizes user supplied OpenCode server addresses.
package serverurl

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/opencode-portal/portal/internal/errors"
)

const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"

	// DefaultScheme is assumed when the input has no scheme.
	DefaultScheme = SchemeHTTP
)

var (
	schemePrefix = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

	// dnsName matches one or more dot separated labels, underscores are allowed for container hostnames.
	dnsName = regexp.MustCompile(`^[a-z0-9_]([a-z0-9_-]{0,61}[a-z0-9_])?(\.[a-z0-9_]([a-z0-9_-]{0,61}[a-z0-9_])?)*$`)
)

// URL is a canonical server base URL.
// Values should only be obtained from Normalize.
type URL string

// String implements fmt.Stringer.
func (u URL) String() string {
	return string(u)
}

// HostPort returns the host and, when present, the port of the URL.
func (u URL) HostPort() string {
	parsed, err := url.Parse(string(u))
	if err != nil {
		return ""
	}
	return parsed.Host
}

// Normalize validates the input and returns its canonical form.
//
// Bare host[:port] forms are accepted and given the http scheme. The scheme and host are
// lower-cased and trailing slashes are removed from the path. Normalizing an already
// normalized URL returns it unchanged.
// Empty input returns ErrEmptyURL, any other rejection wraps ErrInvalidURL.
func Normalize(input string) (URL, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.ErrEmptyURL
	}

	raw := input
	if !schemePrefix.MatchString(raw) {
		raw = DefaultScheme + "://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", errors.ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != SchemeHTTP && scheme != SchemeHTTPS {
		return "", fmt.Errorf("%w: unsupported scheme '%s'", errors.ErrInvalidURL, u.Scheme)
	}
	if u.Opaque != "" {
		return "", fmt.Errorf("%w: missing '//' after scheme", errors.ErrInvalidURL)
	}
	if u.User != nil {
		return "", fmt.Errorf("%w: user info is not supported", errors.ErrInvalidURL)
	}
	if u.RawQuery != "" || u.ForceQuery || u.Fragment != "" {
		return "", fmt.Errorf("%w: query and fragment are not supported", errors.ErrInvalidURL)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: missing host", errors.ErrInvalidURL)
	}
	if !validHost(host) {
		return "", fmt.Errorf("%w: invalid host '%s'", errors.ErrInvalidURL, host)
	}

	port := u.Port()
	if strings.HasSuffix(u.Host, ":") {
		return "", fmt.Errorf("%w: empty port", errors.ErrInvalidURL)
	}
	if port != "" {
		if err := validatePort(port); err != nil {
			return "", fmt.Errorf("%w: %w", errors.ErrInvalidURL, err)
		}
	}

	hostPort := host
	switch {
	case port != "":
		hostPort = net.JoinHostPort(host, port)
	case strings.Contains(host, ":"):
		hostPort = "[" + host + "]"
	}

	path := strings.TrimRight(u.EscapedPath(), "/")

	return URL(scheme + "://" + hostPort + path), nil
}

// validHost reports whether host is an IP literal or a DNS name.
func validHost(host string) bool {
	if net.ParseIP(host) != nil {
		return true
	}
	return len(host) <= 253 && dnsName.MatchString(host)
}

func validatePort(port string) error {
	n, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port '%s' is not numeric", port)
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("port %d out of range", n)
	}
	return nil
}
