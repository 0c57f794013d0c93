package vector

import (
	"fmt"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestStoreAddAndSearch(t *testing.T) {
	s := NewStore()
	s.Add("x", []float32{1, 0, 0}, map[string]string{"label": "x-axis"})
	s.Add("y", []float32{0, 1, 0}, map[string]string{"label": "y-axis"})
	s.Add("xy", []float32{1, 1, 0}, map[string]string{"label": "diagonal"})

	results := s.Search([]float32{1, 0, 0}, 3, nil)
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0].ID != "x" || !almostEqual(results[0].Score, 1.0) {
		t.Errorf("Expected exact match x with score 1.0 first, got %s score %f", results[0].ID, results[0].Score)
	}
	if results[1].ID != "xy" {
		t.Errorf("Expected diagonal second, got %s", results[1].ID)
	}
	if results[2].ID != "y" || !almostEqual(results[2].Score, 0.0) {
		t.Errorf("Expected orthogonal y last with score 0, got %s score %f", results[2].ID, results[2].Score)
	}
	if results[0].Payload["label"] != "x-axis" {
		t.Errorf("Payload not returned with result: %+v", results[0].Payload)
	}
}

func TestStoreSearchFilter(t *testing.T) {
	s := NewStore()
	s.Add("a1", []float32{1, 0}, map[string]string{"user_id": "alice", "type": "experience"})
	s.Add("a2", []float32{0, 1}, map[string]string{"user_id": "alice", "type": "education"})
	s.Add("b1", []float32{1, 0}, map[string]string{"user_id": "bob", "type": "experience"})

	results := s.Search([]float32{1, 0}, 10, map[string]string{"user_id": "alice"})
	if len(results) != 2 {
		t.Fatalf("Expected 2 results for alice, got %d", len(results))
	}
	for _, r := range results {
		if r.Payload["user_id"] != "alice" {
			t.Errorf("Filter leaked a foreign entry: %+v", r)
		}
	}

	results = s.Search([]float32{1, 0}, 10, map[string]string{"user_id": "alice", "type": "experience"})
	if len(results) != 1 || results[0].ID != "a1" {
		t.Errorf("Multi-key filter failed: %+v", results)
	}

	results = s.Search([]float32{1, 0}, 10, map[string]string{"user_id": "nobody"})
	if len(results) != 0 {
		t.Errorf("Expected no results for unknown user, got %d", len(results))
	}
}

func TestStoreSearchTopK(t *testing.T) {
	s := NewStore()
	for i := 0; i < 10; i++ {
		s.Add(fmt.Sprintf("v%d", i), []float32{1, float32(i) / 10}, nil)
	}

	if got := len(s.Search([]float32{1, 0}, 3, nil)); got != 3 {
		t.Errorf("Expected topK to cap results at 3, got %d", got)
	}
	// topK <= 0 falls back to the default of 5
	if got := len(s.Search([]float32{1, 0}, 0, nil)); got != defaultTopK {
		t.Errorf("Expected default topK %d, got %d", defaultTopK, got)
	}
}

func TestStoreZeroNormScoresZero(t *testing.T) {
	s := NewStore()
	s.Add("zero", []float32{0, 0, 0}, nil)
	s.Add("unit", []float32{1, 0, 0}, nil)

	results := s.Search([]float32{1, 0, 0}, 10, nil)
	for _, r := range results {
		if r.ID == "zero" && !almostEqual(r.Score, 0.0) {
			t.Errorf("Zero-norm entry should score 0, got %f", r.Score)
		}
	}

	// A zero-norm query scores everything 0
	for _, r := range s.Search([]float32{0, 0, 0}, 10, nil) {
		if !almostEqual(r.Score, 0.0) {
			t.Errorf("Zero-norm query should score 0 against %s, got %f", r.ID, r.Score)
		}
	}
}

func TestStoreDimensionMismatchScoresZero(t *testing.T) {
	s := NewStore()
	s.Add("short", []float32{1, 0}, nil)

	results := s.Search([]float32{1, 0, 0}, 10, nil)
	if len(results) != 1 {
		t.Fatalf("Expected the entry to still be returned, got %d results", len(results))
	}
	if !almostEqual(results[0].Score, 0.0) {
		t.Errorf("Mismatched dimensions should score 0, got %f", results[0].Score)
	}
}

func TestStoreUpsert(t *testing.T) {
	s := NewStore()
	s.Add("v", []float32{1, 0}, map[string]string{"rev": "1"})
	s.Add("v", []float32{0, 1}, map[string]string{"rev": "2"})

	if s.Count(nil) != 1 {
		t.Fatalf("Expected upsert to keep one entry, got %d", s.Count(nil))
	}
	results := s.Search([]float32{0, 1}, 1, nil)
	if !almostEqual(results[0].Score, 1.0) || results[0].Payload["rev"] != "2" {
		t.Errorf("Expected second Add to win: %+v", results[0])
	}
}

func TestStoreAddBatch(t *testing.T) {
	s := NewStore()
	s.AddBatch([]Entry{
		{ID: "a", Vector: []float32{1, 0}, Payload: map[string]string{"user_id": "alice"}},
		{ID: "b", Vector: []float32{0, 1}, Payload: map[string]string{"user_id": "bob"}},
	})

	if s.Count(nil) != 2 {
		t.Errorf("Expected 2 entries after batch add, got %d", s.Count(nil))
	}
	if s.Count(map[string]string{"user_id": "alice"}) != 1 {
		t.Errorf("Filtered count wrong after batch add")
	}
}

func TestStoreDelete(t *testing.T) {
	s := NewStore()
	s.Add("a1", []float32{1, 0}, map[string]string{"user_id": "alice"})
	s.Add("a2", []float32{0, 1}, map[string]string{"user_id": "alice"})
	s.Add("b1", []float32{1, 1}, map[string]string{"user_id": "bob"})

	s.DeleteByID("a1")
	if s.Count(nil) != 2 {
		t.Errorf("Expected 2 entries after DeleteByID, got %d", s.Count(nil))
	}
	// Unknown ids are a no-op
	s.DeleteByID("missing")
	if s.Count(nil) != 2 {
		t.Errorf("DeleteByID of unknown id changed the store")
	}

	removed := s.DeleteByFilter(map[string]string{"user_id": "alice"})
	if removed != 1 {
		t.Errorf("Expected 1 removal, got %d", removed)
	}
	if s.Count(nil) != 1 || s.Count(map[string]string{"user_id": "bob"}) != 1 {
		t.Errorf("DeleteByFilter removed the wrong entries")
	}
}

func TestStoreClearAndStats(t *testing.T) {
	s := NewStore()

	stats := s.GetStats()
	if stats.TotalVectors != 0 || stats.VectorDimension != 0 || stats.StoreType != "simple_memory" {
		t.Errorf("Unexpected empty stats: %+v", stats)
	}

	s.Add("a", []float32{1, 2, 3}, nil)
	s.Add("b", []float32{4, 5, 6}, nil)

	stats = s.GetStats()
	if stats.TotalVectors != 2 || stats.VectorDimension != 3 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	s.Clear()
	if s.Count(nil) != 0 {
		t.Errorf("Expected empty store after Clear, got %d", s.Count(nil))
	}
}

func TestStoreCopiesEntries(t *testing.T) {
	s := NewStore()
	vec := []float32{1, 0}
	payload := map[string]string{"label": "original"}
	s.Add("v", vec, payload)

	// Mutating caller-owned inputs must not change stored state
	vec[0] = 0
	vec[1] = 1
	payload["label"] = "mutated"

	results := s.Search([]float32{1, 0}, 1, nil)
	if !almostEqual(results[0].Score, 1.0) {
		t.Errorf("Stored vector changed through caller slice: score %f", results[0].Score)
	}
	if results[0].Payload["label"] != "original" {
		t.Errorf("Stored payload changed through caller map: %+v", results[0].Payload)
	}

	// Mutating a returned payload must not change stored state either
	results[0].Payload["label"] = "tampered"
	again := s.Search([]float32{1, 0}, 1, nil)
	if again[0].Payload["label"] != "original" {
		t.Errorf("Stored payload changed through returned result: %+v", again[0].Payload)
	}
}
