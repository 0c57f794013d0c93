// Package vector provides an in-memory cosine-similarity store for
// embedding search. It keeps the interface small enough to swap in a real
// vector database later without touching callers.
package vector

import (
	"math"
	"sort"
	"sync"
)

const defaultTopK = 5

// Entry is one stored vector with its metadata payload
type Entry struct {
	ID      string
	Vector  []float32
	Payload map[string]string
}

// SearchResult is one ranked hit, highest score first
type SearchResult struct {
	ID      string
	Score   float64
	Payload map[string]string
}

// Stats summarizes the store contents
type Stats struct {
	TotalVectors    int    `json:"totalVectors"`
	VectorDimension int    `json:"vectorDimension"`
	StoreType       string `json:"storeType"`
}

// Store holds vectors in memory behind a single mutex. Entries are copied
// on the way in and out so callers never alias stored state.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
}

// NewStore creates an empty vector store
func NewStore() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Add upserts a single vector by id
func (s *Store) Add(id string, vec []float32, payload map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = Entry{ID: id, Vector: copyVector(vec), Payload: copyPayload(payload)}
}

// AddBatch upserts multiple vectors in one lock acquisition
func (s *Store) AddBatch(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries[e.ID] = Entry{ID: e.ID, Vector: copyVector(e.Vector), Payload: copyPayload(e.Payload)}
	}
}

// Search ranks stored vectors against the query by cosine similarity and
// returns the top K matches. A nil filter matches everything; a non-nil
// filter requires payload equality on every filter key. Vectors with zero
// norm or mismatched dimensions score 0. topK <= 0 falls back to a default.
func (s *Store) Search(query []float32, topK int, filter map[string]string) []SearchResult {
	if topK <= 0 {
		topK = defaultTopK
	}
	queryNorm := vectorNorm(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]SearchResult, 0, len(s.entries))
	for _, e := range s.entries {
		if !matchesFilter(e.Payload, filter) {
			continue
		}
		results = append(results, SearchResult{
			ID:      e.ID,
			Score:   cosineSimilarity(query, e.Vector, queryNorm),
			Payload: copyPayload(e.Payload),
		})
	}

	// Map iteration is randomized, so break score ties on id to keep
	// results deterministic.
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// DeleteByID removes one vector; unknown ids are a no-op
func (s *Store) DeleteByID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// DeleteByFilter removes every vector whose payload matches the filter and
// returns how many were removed.
func (s *Store) DeleteByFilter(filter map[string]string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, e := range s.entries {
		if matchesFilter(e.Payload, filter) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Count returns how many vectors match the filter; a nil filter counts all
func (s *Store) Count(filter map[string]string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if filter == nil {
		return len(s.entries)
	}
	n := 0
	for _, e := range s.entries {
		if matchesFilter(e.Payload, filter) {
			n++
		}
	}
	return n
}

// Clear removes all vectors
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
}

// GetStats reports the store size and dimensionality
func (s *Store) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{StoreType: "simple_memory"}
	stats.TotalVectors = len(s.entries)
	for _, e := range s.entries {
		stats.VectorDimension = len(e.Vector)
		break
	}
	return stats
}

func matchesFilter(payload, filter map[string]string) bool {
	for key, want := range filter {
		if payload[key] != want {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32, aNorm float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, bNormSq float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		bNormSq += float64(b[i]) * float64(b[i])
	}
	bNorm := math.Sqrt(bNormSq)
	if aNorm == 0 || bNorm == 0 {
		return 0
	}
	return dot / (aNorm * bNorm)
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func copyVector(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

func copyPayload(p map[string]string) map[string]string {
	if p == nil {
		return nil
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
