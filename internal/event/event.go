// Package event defines the incident record shared by the catalog, the
// local journal and the reconciled view.
package event

import "time"

type Status string

const (
	StatusActive   Status = "Active"
	StatusUpcoming Status = "Upcoming"
	StatusEnded    Status = "Ended"
	StatusReported Status = "Reported"
)

// NormalizeStatus maps unknown or empty status strings to the default.
func NormalizeStatus(raw string) Status {
	switch Status(raw) {
	case StatusActive, StatusUpcoming, StatusEnded, StatusReported:
		return Status(raw)
	}
	return StatusReported
}

type Event struct {
	ID              int64    `json:"id"`
	Title           string   `json:"title"`
	Type            string   `json:"type,omitempty"`
	County          string   `json:"county,omitempty"`
	Location        string   `json:"location"`
	Date            string   `json:"date"`
	Time            string   `json:"time,omitempty"`
	Description     string   `json:"description"`
	Status          Status   `json:"status"`
	ReporterName    string   `json:"reporterName,omitempty"`
	ReporterContact string   `json:"reporterContact,omitempty"`
	Image           string   `json:"image,omitempty"`
	Opinions        Opinions `json:"opinions"`
}

// clockIDThreshold separates catalog ids (small integers) from
// clock-derived report ids (Unix milliseconds). Anything above this is
// treated as a timestamp: 1e12 ms is September 2001.
const clockIDThreshold = 1_000_000_000_000

// ReportedAt recovers the submission instant from a clock-derived id.
// Catalog events carry no submission time and return false.
func (e Event) ReportedAt() (time.Time, bool) {
	if e.ID < clockIDThreshold {
		return time.Time{}, false
	}
	return time.UnixMilli(e.ID), true
}

// NewReportID returns a clock-derived identifier for a locally-authored
// report.
func NewReportID(now time.Time) int64 {
	return now.UnixMilli()
}

// Normalize fills defaulted fields so every record in a reconciled view has
// a valid status and a well-formed opinions value.
func Normalize(e Event) Event {
	e.Status = NormalizeStatus(string(e.Status))
	return e
}
