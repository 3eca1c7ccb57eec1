package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/vector"
)

type scopeKey struct {
	model     string
	profileID uuid.UUID
}

// Store is an in-memory vector.Store for tests and local mode. Scoping
// matches the pgvector store: vectors live under (model, profile) and are
// invisible to any other pair.
type Store struct {
	mu     sync.RWMutex
	scopes map[scopeKey]map[uuid.UUID][]float32
}

func NewStore() *Store {
	return &Store{scopes: map[scopeKey]map[uuid.UUID][]float32{}}
}

func (s *Store) Upsert(_ context.Context, model string, profileID uuid.UUID, vectors []vector.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := scopeKey{model: model, profileID: profileID}
	scope := s.scopes[key]
	if scope == nil {
		scope = map[uuid.UUID][]float32{}
		s.scopes[key] = scope
	}
	for _, v := range vectors {
		if _, ok := scope[v.ChunkID]; ok {
			continue
		}
		vals := make([]float32, len(v.Values))
		copy(vals, v.Values)
		scope[v.ChunkID] = vals
	}
	return nil
}

func (s *Store) Query(_ context.Context, model string, profileID uuid.UUID, q []float32, topK int) ([]vector.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scope := s.scopes[scopeKey{model: model, profileID: profileID}]
	if len(scope) == 0 || topK <= 0 {
		return nil, nil
	}
	matches := make([]vector.Match, 0, len(scope))
	for id, vals := range scope {
		matches = append(matches, vector.Match{ChunkID: id, Score: vector.CosineSimilarity(q, vals)})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *Store) ExistingChunkIDs(_ context.Context, model string, profileID uuid.UUID, chunkIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uuid.UUID]bool, len(chunkIDs))
	scope := s.scopes[scopeKey{model: model, profileID: profileID}]
	for _, id := range chunkIDs {
		if _, ok := scope[id]; ok {
			out[id] = true
		}
	}
	return out, nil
}
