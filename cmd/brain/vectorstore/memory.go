package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store using cosine similarity
type MemoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]Record
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{namespaces: make(map[string]map[string]Record)}
}

// Upsert writes record into namespace
func (s *MemoryStore) Upsert(ctx context.Context, namespace string, record Record) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ns, ok := s.namespaces[namespace]
	if !ok {
		ns = make(map[string]Record)
		s.namespaces[namespace] = ns
	}

	values := make([]float32, len(record.Values))
	copy(values, record.Values)
	metadata := make(map[string]string, len(record.Metadata))
	for k, v := range record.Metadata {
		metadata[k] = v
	}
	ns[record.ID] = Record{ID: record.ID, Values: values, Metadata: metadata}
	return nil
}

// Query scores every record in namespace against vector
func (s *MemoryStore) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error) {
	if namespace == "" {
		return nil, ErrNamespaceRequired
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, len(s.namespaces[namespace]))
	for _, record := range s.namespaces[namespace] {
		matches = append(matches, Match{
			ID:       record.ID,
			Score:    cosine(vector, record.Values),
			Metadata: record.Metadata,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})

	if topK >= 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Delete removes records from namespace
func (s *MemoryStore) Delete(ctx context.Context, namespace string, ids ...string) error {
	if namespace == "" {
		return ErrNamespaceRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.namespaces[namespace], id)
	}
	return nil
}

// Len returns the number of records in namespace
func (s *MemoryStore) Len(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.namespaces[namespace])
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
