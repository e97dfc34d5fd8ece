// Package opinions is the client-side wrapper around the opinion service:
// list the comments for an event, append a new one.
package opinions

import (
	"fmt"
	"time"
)

// Opinion mirrors the row the opinion service stores.
type Opinion struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"event_id"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// ValidationError is the caller's fault: a required field is missing. It
// is raised before any network I/O and is never worth retrying.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Message
}

// TransportError means the service was unreachable or answered with
// something unreadable. The caller may retry manually.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a store-side failure surfaced with the service's own
// diagnostic detail. Not retried automatically.
type ServerError struct {
	Status  int
	Message string
	Details string
}

func (e *ServerError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("server: %d %s: %s", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("server: %d %s", e.Status, e.Message)
}
