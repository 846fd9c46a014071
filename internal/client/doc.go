// Package client caches OpenCode client handles by the hostname and port they are bound to.
//
// The hostname for a port is resolved from an optional per-user override file, falling back to
// localhost, so a port can be served by an OpenCode instance running on another host.
package client
