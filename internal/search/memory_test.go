package search

import (
	"testing"

	"protestwatch/api/internal/event"
)

func seedMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory()
	err := m.IndexEvents([]EventRecord{
		{ID: 1, Title: "Nairobi CBD Protest", Description: "March along Moi Avenue", Location: "Nairobi CBD", County: "Nairobi", Status: string(event.StatusActive)},
		{ID: 2, Title: "Mombasa March", Description: "Peaceful march to the county offices", Location: "Moi Avenue", County: "Mombasa", Status: string(event.StatusEnded)},
		{ID: 3, Title: "Kisumu Rally", Description: "Planned rally at Kachok grounds", Location: "Kachok", County: "Kisumu", Status: string(event.StatusUpcoming)},
	})
	if err != nil {
		t.Fatalf("IndexEvents() error = %v", err)
	}
	return m
}

func TestMemorySearchMatchesAcrossFields(t *testing.T) {
	m := seedMemory(t)
	results, total, err := m.Search(Query{Text: "moi avenue"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 2 || len(results) != 2 {
		t.Fatalf("total = %d, results = %d, want 2 and 2", total, len(results))
	}
}

func TestMemorySearchFiltersStatus(t *testing.T) {
	m := seedMemory(t)
	results, _, err := m.Search(Query{FilterStatus: string(event.StatusUpcoming)})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].ID != 3 {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestMemorySearchOrdersNewestFirst(t *testing.T) {
	m := seedMemory(t)
	results, _, err := m.Search(Query{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 || results[0].ID != 3 || results[2].ID != 1 {
		t.Fatalf("unexpected order: %+v", results)
	}
}

func TestMemorySearchReindexReplaces(t *testing.T) {
	m := seedMemory(t)
	if err := m.IndexEvents([]EventRecord{{ID: 1, Title: "Renamed", County: "Nairobi"}}); err != nil {
		t.Fatalf("IndexEvents() error = %v", err)
	}
	results, _, err := m.Search(Query{Text: "renamed"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].ID != 1 {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestMemorySearchPagination(t *testing.T) {
	m := seedMemory(t)
	results, total, err := m.Search(Query{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if total != 3 || len(results) != 1 || results[0].ID != 1 {
		t.Fatalf("total = %d, results = %+v", total, results)
	}
}

func TestServiceFallsBackWithoutMeilisearch(t *testing.T) {
	svc := NewService(nil)
	svc.IndexEvents([]EventRecord{{ID: 7, Title: "Eldoret Vigil", County: "Uasin Gishu", Status: string(event.StatusUpcoming)}})
	resp := svc.Search(Query{Text: "vigil"})
	if resp.Total != 1 || len(resp.Results) != 1 || resp.Results[0].ID != 7 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Query != "vigil" {
		t.Fatalf("query echo = %q", resp.Query)
	}
}

func TestServiceReturnsEmptySliceNotNil(t *testing.T) {
	svc := NewService(nil)
	resp := svc.Search(Query{Text: "nothing-here"})
	if resp.Results == nil {
		t.Fatal("Results is nil, want empty slice")
	}
}
