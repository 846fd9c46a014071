// Package errors defines domain-level errors used throughout portal.
// They are wrapped with additional context where they occur and mapped to HTTP
// status codes at the API boundary.
//
// NOTE: When adding a new error here, add it to mapError (internal/daemon/api_server.go)
// and to TestMapError, otherwise it will surface as HTTP 500.
package errors

import (
	"errors"
)

var (
	// ErrBadRequest indicates that the caller provided invalid input.
	// Recommended to map to HTTP 400 Bad Request.
	ErrBadRequest = errors.New("bad request")

	// ErrEmptyURL indicates that no server URL was supplied.
	// Recommended to map to HTTP 400 Bad Request.
	ErrEmptyURL = errors.New("server url is empty")

	// ErrInvalidURL indicates that the supplied server URL could not be normalized.
	// Recommended to map to HTTP 400 Bad Request.
	ErrInvalidURL = errors.New("invalid server url")

	// ErrServerUnhealthy indicates that the server responded, but did not report itself healthy.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrServerUnhealthy = errors.New("server is not healthy")

	// ErrServerUnreachable indicates that the health probe could not complete a request to the server.
	// Recommended to map to HTTP 502 Bad Gateway.
	ErrServerUnreachable = errors.New("server is unreachable")

	// ErrConnectInProgress indicates that a connection attempt is already running.
	// Recommended to map to HTTP 409 Conflict.
	ErrConnectInProgress = errors.New("connection attempt already in progress")

	// ErrServerNotFound indicates that the server is not present in the registry.
	// Recommended to map to HTTP 404 Not Found.
	ErrServerNotFound = errors.New("server not found")

	// ErrHealthNotTracked indicates that no health information is tracked for the server.
	// Recommended to map to HTTP 404 Not Found.
	ErrHealthNotTracked = errors.New("server health is not being tracked")
)
