package search

import "protestwatch/api/internal/event"

// Result is a single search hit returned to the caller.
type Result struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	County  string `json:"county"`
	Status  string `json:"status"`
	Date    string `json:"date"`
}

// Query describes an event search request.
type Query struct {
	Text         string
	FilterStatus string // empty = all statuses
	FilterCounty string
	Limit        int
	Offset       int
}

// Response is the envelope returned to the caller.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over events.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// EventRecord is the data we index for an event.
type EventRecord struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	County      string `json:"county"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	Date        string `json:"date"`
}

// RecordFromEvent projects an event into its indexed form.
func RecordFromEvent(e event.Event) EventRecord {
	return EventRecord{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		County:      e.County,
		Type:        e.Type,
		Status:      string(e.Status),
		Date:        e.Date,
	}
}
