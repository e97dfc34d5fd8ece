// Package reconcile merges locally-authored reports with the bundled
// catalog into the single de-duplicated view the client renders.
package reconcile

import (
	"fmt"
	"time"

	"protestwatch/api/internal/event"
)

// Merge combines the local journal contents with the static catalog.
// Local entries come first in their stored order (most recent report
// first); catalog entries follow in shipped order, minus any id already
// present locally. Every entry is normalized. Merge is pure: identical
// inputs always produce identical output.
func Merge(local, catalog []event.Event) []event.Event {
	merged := make([]event.Event, 0, len(local)+len(catalog))
	seen := make(map[int64]struct{}, len(local))

	for _, e := range local {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		merged = append(merged, event.Normalize(e))
	}

	for _, e := range catalog {
		if _, taken := seen[e.ID]; taken {
			continue
		}
		seen[e.ID] = struct{}{}
		merged = append(merged, event.Normalize(e))
	}

	return merged
}

// FilterStatus returns the entries matching status, preserving order.
// An empty status matches everything.
func FilterStatus(view []event.Event, status event.Status) []event.Event {
	if status == "" {
		out := make([]event.Event, len(view))
		copy(out, view)
		return out
	}
	out := make([]event.Event, 0, len(view))
	for _, e := range view {
		if e.Status == status {
			out = append(out, e)
		}
	}
	return out
}

// CountByStatus tallies the view for the dashboard cards.
func CountByStatus(view []event.Event) map[event.Status]int {
	counts := make(map[event.Status]int, 4)
	for _, e := range view {
		counts[e.Status]++
	}
	return counts
}

// RelativeLabel renders the age of a submission the way the event list
// displays it: "just now", "5 minutes ago", "3 hours ago", "2 days ago".
func RelativeLabel(reported, now time.Time) string {
	age := now.Sub(reported)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return plural(int(age.Minutes()), "minute")
	case age < 24*time.Hour:
		return plural(int(age.Hours()), "hour")
	default:
		return plural(int(age.Hours()/24), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
