package domain

import "time"

// ServerRecord is a known OpenCode server.
type ServerRecord struct {
	ID      string
	URL     string
	Active  bool
	AddedAt time.Time
}
