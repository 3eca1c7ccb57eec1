package retrieval

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos/testutil"
	"github.com/IGabriel/ai-knowledge-bench/internal/vector"
	"github.com/IGabriel/ai-knowledge-bench/internal/vector/memory"
)

// axisEmbedder maps known query strings to fixed unit vectors so the test
// controls similarity exactly.
type axisEmbedder struct {
	byQuery map[string][]float32
}

func (a *axisEmbedder) Embed(_ context.Context, inputs []string, _ string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		v, ok := a.byQuery[in]
		if !ok {
			return nil, fmt.Errorf("unexpected query %q", in)
		}
		out[i] = v
	}
	return out, nil
}

func TestRetrieverThresholdAndRanking(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	profile := testutil.SeedProfile(t, ctx, db, "retr-"+uuid.NewString(), 256, 32, false)
	doc := testutil.SeedDocument(t, ctx, db, strings.Repeat("a", 60)+uuid.NewString()[:4])
	section := testutil.SeedSection(t, ctx, db, doc.ID, 0, "page=1")
	close1 := testutil.SeedChunk(t, ctx, db, doc.ID, section.ID, profile.ID, 0, "page=1")
	close2 := testutil.SeedChunk(t, ctx, db, doc.ID, section.ID, profile.ID, 1, "page=1")
	far := testutil.SeedChunk(t, ctx, db, doc.ID, section.ID, profile.ID, 2, "page=1")

	store := memory.NewStore()
	if err := store.Upsert(ctx, "m", profile.ID, []vector.Vector{
		{ChunkID: close1.ID, Values: []float32{1, 0}},
		{ChunkID: close2.ID, Values: []float32{0.9, 0.1}},
		{ChunkID: far.ID, Values: []float32{0, 1}},
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	embedder := &axisEmbedder{byQuery: map[string][]float32{"q": {1, 0}}}
	retriever := NewRetriever(log, repos.NewChunkRepo(db, log), store, embedder)

	got, err := retriever.Retrieve(ctx, "q", "m", profile.ID, 5, 0.7)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected the two near chunks above the threshold, got %d", len(got))
	}
	if got[0].ChunkID != close1.ID || got[1].ChunkID != close2.ID {
		t.Fatalf("unexpected ranking: %v then %v", got[0].ChunkID, got[1].ChunkID)
	}
	if got[0].Score < got[1].Score {
		t.Fatal("candidates must be ordered by descending similarity")
	}
	if got[0].DocumentID != doc.ID || got[0].SourceRef != "page=1" {
		t.Fatalf("candidate missing provenance: %+v", got[0])
	}

	// topK truncation.
	got, err = retriever.Retrieve(ctx, "q", "m", profile.ID, 1, 0.0)
	if err != nil {
		t.Fatalf("retrieve topK=1: %v", err)
	}
	if len(got) != 1 || got[0].ChunkID != close1.ID {
		t.Fatalf("expected only the best match, got %+v", got)
	}
}

func TestRetrieverEmptyResultIsNotAnError(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	profile := testutil.SeedProfile(t, ctx, db, "empty-"+uuid.NewString(), 256, 32, false)
	store := memory.NewStore()
	embedder := &axisEmbedder{byQuery: map[string][]float32{"nothing": {1, 0}}}
	retriever := NewRetriever(log, repos.NewChunkRepo(db, log), store, embedder)

	got, err := retriever.Retrieve(ctx, "nothing", "m", profile.ID, 5, 0.9)
	if err != nil {
		t.Fatalf("an empty scope must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %d", len(got))
	}
}

func TestRetrieverScopeIsolation(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	profileA := testutil.SeedProfile(t, ctx, db, "scope-a-"+uuid.NewString(), 256, 32, false)
	profileB := testutil.SeedProfile(t, ctx, db, "scope-b-"+uuid.NewString(), 128, 16, false)
	doc := testutil.SeedDocument(t, ctx, db, strings.Repeat("b", 60)+uuid.NewString()[:4])
	section := testutil.SeedSection(t, ctx, db, doc.ID, 0, "page=2")
	inA := testutil.SeedChunk(t, ctx, db, doc.ID, section.ID, profileA.ID, 0, "page=2")
	inB := testutil.SeedChunk(t, ctx, db, doc.ID, section.ID, profileB.ID, 0, "page=2")

	store := memory.NewStore()
	_ = store.Upsert(ctx, "model-x", profileA.ID, []vector.Vector{{ChunkID: inA.ID, Values: []float32{1, 0}}})
	_ = store.Upsert(ctx, "model-y", profileB.ID, []vector.Vector{{ChunkID: inB.ID, Values: []float32{1, 0}}})

	embedder := &axisEmbedder{byQuery: map[string][]float32{"q": {1, 0}}}
	retriever := NewRetriever(log, repos.NewChunkRepo(db, log), store, embedder)

	got, err := retriever.Retrieve(ctx, "q", "model-x", profileA.ID, 5, 0.5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 1 || got[0].ChunkID != inA.ID {
		t.Fatalf("profile A under model-x should see only its own chunk, got %+v", got)
	}

	// Same profile, different model: nothing leaks across the model axis.
	got, err = retriever.Retrieve(ctx, "q", "model-y", profileA.ID, 5, 0.5)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("cross-model query must be empty, got %+v", got)
	}
}

func TestBuildContextNumbersSources(t *testing.T) {
	ctx := BuildContext([]Candidate{
		{SourceRef: "page=5", Text: "first passage"},
		{SourceRef: "heading=Intro", Text: "second passage"},
	})
	if !strings.Contains(ctx, "[Source 1: page=5]\nfirst passage") {
		t.Fatalf("missing first source block:\n%s", ctx)
	}
	if !strings.Contains(ctx, "[Source 2: heading=Intro]\nsecond passage") {
		t.Fatalf("missing second source block:\n%s", ctx)
	}
}
