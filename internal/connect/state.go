package connect

import (
	"time"

	"github.com/opencode-portal/portal/internal/serverurl"
)

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateProbing    State = "probing"
	StatePersisting State = "persisting"
	StateConnected  State = "connected"
)

// Messages shown to users when a connection attempt fails.
const (
	MessageEmptyURL    = "Please enter a URL"
	MessageInvalidURL  = "Invalid URL format"
	MessageUnreachable = "Could not connect to server"
)

// State is a step of a connection attempt.
type State string

// Event describes a state transition of a Flow.
type Event struct {
	From    State
	To      State
	URL     serverurl.URL
	Message string
	At      time.Time
}

// Status is a point-in-time view of a Flow.
type Status struct {
	State   State
	Busy    bool
	Message string

	// URL is the server of the current or most recent attempt, once normalized.
	URL serverurl.URL
}
