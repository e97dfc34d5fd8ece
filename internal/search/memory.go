package search

import (
	"sort"
	"strings"
	"sync"
)

// Memory is the fallback searcher used when Meilisearch is not
// configured or unreachable. It holds the reconciled event set and
// matches on substrings.
type Memory struct {
	mu      sync.RWMutex
	records map[int64]EventRecord
}

func NewMemory() *Memory {
	return &Memory{records: map[int64]EventRecord{}}
}

func (m *Memory) Healthy() bool { return true }

// IndexEvents adds or updates events in the in-memory set.
func (m *Memory) IndexEvents(records []EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range records {
		m.records[record.ID] = record
	}
	return nil
}

// DeleteEvent removes an event from the in-memory set.
func (m *Memory) DeleteEvent(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

// Search scans the indexed events for case-insensitive substring
// matches across title, description, location and county.
func (m *Memory) Search(q Query) ([]Result, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(strings.TrimSpace(q.Text))

	var matched []EventRecord
	for _, record := range m.records {
		if q.FilterStatus != "" && !strings.EqualFold(record.Status, q.FilterStatus) {
			continue
		}
		if q.FilterCounty != "" && !strings.EqualFold(record.County, q.FilterCounty) {
			continue
		}
		if needle != "" && !matchesRecord(record, needle) {
			continue
		}
		matched = append(matched, record)
	}

	// Newest report first keeps locally filed events at the top.
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	limit := q.Limit
	if limit == 0 {
		limit = 20
	}
	offset := q.Offset
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	results := make([]Result, 0, end-offset)
	for _, record := range matched[offset:end] {
		results = append(results, Result{
			ID:      record.ID,
			Title:   record.Title,
			Snippet: record.Description,
			County:  record.County,
			Status:  record.Status,
			Date:    record.Date,
		})
	}
	return results, total, nil
}

func matchesRecord(record EventRecord, needle string) bool {
	for _, field := range []string{record.Title, record.Description, record.Location, record.County} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
