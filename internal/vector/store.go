package vector

import (
	"context"
	"math"

	"github.com/google/uuid"
)

// Vector is one chunk embedding keyed by chunk id.
type Vector struct {
	ChunkID uuid.UUID
	Values  []float32
}

// Match is a nearest-neighbor hit ordered by descending cosine similarity.
type Match struct {
	ChunkID uuid.UUID
	Score   float64
}

// Store persists fixed-dimension embeddings scoped by (embedding model,
// chunk profile). A query against model M and profile P only ever sees
// vectors written under that exact pair.
type Store interface {
	Upsert(ctx context.Context, model string, profileID uuid.UUID, vectors []Vector) error
	Query(ctx context.Context, model string, profileID uuid.UUID, q []float32, topK int) ([]Match, error)
	// ExistingChunkIDs reports which of the given chunks already hold an
	// embedding under (model, profile); the embed stage uses it to skip
	// work on redelivery.
	ExistingChunkIDs(ctx context.Context, model string, profileID uuid.UUID, chunkIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

// CosineSimilarity of two vectors; zero when either has zero magnitude or
// dimensions disagree.
func CosineSimilarity(a, b []float32) float64 {
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
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
