package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/vector"
)

func TestStoreScopingByModelAndProfile(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	profileA := uuid.New()
	profileB := uuid.New()
	chunk := uuid.New()

	if err := s.Upsert(ctx, "text-embedding-3-small", profileA, []vector.Vector{
		{ChunkID: chunk, Values: []float32{1, 0, 0}},
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	matches, err := s.Query(ctx, "text-embedding-3-small", profileA, []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 || matches[0].ChunkID != chunk {
		t.Fatalf("expected the stored chunk back, got %+v", matches)
	}
	if matches[0].Score < 0.999 {
		t.Fatalf("expected near-1 similarity for identical vectors, got %f", matches[0].Score)
	}

	// Other profile under the same model sees nothing.
	matches, err = s.Query(ctx, "text-embedding-3-small", profileB, []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("query other profile: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected empty result for other profile, got %d matches", len(matches))
	}

	// Other model under the same profile sees nothing.
	matches, err = s.Query(ctx, "text-embedding-3-large", profileA, []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("query other model: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected empty result for other model, got %d matches", len(matches))
	}
}

func TestStoreUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	profile := uuid.New()
	chunk := uuid.New()

	first := []vector.Vector{{ChunkID: chunk, Values: []float32{0, 1}}}
	if err := s.Upsert(ctx, "m", profile, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Redelivered writes keep the original vector.
	if err := s.Upsert(ctx, "m", profile, []vector.Vector{{ChunkID: chunk, Values: []float32{1, 0}}}); err != nil {
		t.Fatalf("redelivered upsert: %v", err)
	}

	matches, err := s.Query(ctx, "m", profile, []float32{0, 1}, 1)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 || matches[0].Score < 0.999 {
		t.Fatalf("original vector should survive redelivery, got %+v", matches)
	}

	existing, err := s.ExistingChunkIDs(ctx, "m", profile, []uuid.UUID{chunk, uuid.New()})
	if err != nil {
		t.Fatalf("existing: %v", err)
	}
	if !existing[chunk] || len(existing) != 1 {
		t.Fatalf("expected only the stored chunk to exist, got %v", existing)
	}
}
