package search

import "log"

// Service is the facade that tries Meilisearch first and falls back to
// the in-memory searcher.
type Service struct {
	meili  *Meili
	memory *Memory
}

// NewService creates a search service. meili may be nil when
// Meilisearch is not configured.
func NewService(meili *Meili) *Service {
	return &Service{meili: meili, memory: NewMemory()}
}

// IndexEvents updates both searchers. The in-memory set is the source
// of truth for fallback; the Meilisearch push is fire-and-forget.
func (s *Service) IndexEvents(records []EventRecord) {
	if err := s.memory.IndexEvents(records); err != nil {
		log.Printf("search: memory index: %v", err)
	}
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexEvents(records); err != nil {
			log.Printf("search: meilisearch index: %v", err)
		}
	}()
}

// Search tries Meilisearch if healthy, otherwise scans in memory.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to memory: %v", err)
	}

	results, total, err := s.memory.Search(q)
	if err != nil {
		log.Printf("search: memory error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
