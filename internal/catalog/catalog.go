// Package catalog serves the seed events bundled with the build. The data
// is immutable and identical on every load.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"protestwatch/api/internal/event"
)

//go:embed events.json
var rawEvents []byte

var seed []event.Event

func init() {
	parsed, err := parse(rawEvents)
	if err != nil {
		// The catalog ships inside the binary; failing to parse it is a
		// build defect, not a runtime condition.
		panic(fmt.Sprintf("catalog: %v", err))
	}
	seed = parsed
}

func parse(data []byte) ([]event.Event, error) {
	var events []event.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("decode bundled events: %w", err)
	}
	for i := range events {
		events[i] = event.Normalize(events[i])
	}
	return events, nil
}

// Events returns the bundled seed list in shipped order. Callers receive a
// copy and cannot mutate the catalog.
func Events() []event.Event {
	out := make([]event.Event, len(seed))
	copy(out, seed)
	return out
}
