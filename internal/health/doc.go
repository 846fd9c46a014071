// Package health probes OpenCode servers and tracks the outcome of those probes.
//
// A Prober distinguishes between a server that answered but is not healthy (a result with Healthy set to false)
// and a server that could not be reached (an error wrapping errors.ErrServerUnreachable), so callers can
// produce accurate messages for each case.
package health
