package store

import "time"

// Opinion is a stored public comment attached to a protest event.
type Opinion struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"event_id"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}
