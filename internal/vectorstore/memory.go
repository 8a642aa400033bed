package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process VectorStore using brute-force cosine
// similarity. It backs single-node deployments and tests where running
// Qdrant would be overkill.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

type memoryCollection struct {
	vectorSize int
	points     map[string]Point
	order      []string
}

// NewMemoryStore creates an empty in-memory vector store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection)}
}

// EnsureCollection creates the collection if missing and validates the
// vector size when it already exists.
func (s *MemoryStore) EnsureCollection(_ context.Context, collection string, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be greater than 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[collection]; ok {
		if col.vectorSize != vectorSize {
			return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, col.vectorSize)
		}
		return nil
	}
	s.collections[collection] = &memoryCollection{
		vectorSize: vectorSize,
		points:     make(map[string]Point),
	}
	return nil
}

// CollectionExists reports whether the collection exists.
func (s *MemoryStore) CollectionExists(_ context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[collection]
	return ok, nil
}

// Upsert inserts or updates points in the collection.
func (s *MemoryStore) Upsert(_ context.Context, collection string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	for _, p := range points {
		if len(p.Vec) != col.vectorSize {
			return fmt.Errorf("vector size mismatch for point %s: expected %d, got %d", p.ID, col.vectorSize, len(p.Vec))
		}
		if _, exists := col.points[p.ID]; !exists {
			col.order = append(col.order, p.ID)
		}
		col.points[p.ID] = p
	}
	return nil
}

// Search scores every point by cosine similarity and returns the top k,
// highest score first. Insertion order breaks ties to keep results stable.
func (s *MemoryStore) Search(_ context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	col, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q does not exist", collection)
	}

	results := make([]SearchResult, 0, len(col.order))
	for _, id := range col.order {
		p := col.points[id]
		if !matchesFilters(p.Meta, filters) {
			continue
		}
		results = append(results, SearchResult{
			PointID: p.ID,
			Score:   cosine(query, p.Vec),
			Meta:    p.Meta,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Delete removes points by their IDs.
func (s *MemoryStore) Delete(_ context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q does not exist", collection)
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
		delete(col.points, id)
	}
	kept := col.order[:0]
	for _, id := range col.order {
		if _, gone := drop[id]; !gone {
			kept = append(kept, id)
		}
	}
	col.order = kept
	return nil
}

func matchesFilters(meta map[string]any, filters map[string]any) bool {
	for key, want := range filters {
		got, ok := meta[key]
		if !ok || fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
