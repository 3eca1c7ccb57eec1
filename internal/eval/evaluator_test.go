package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos/testutil"
	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/retrieval"
	"github.com/IGabriel/ai-knowledge-bench/internal/vector"
	"github.com/IGabriel/ai-knowledge-bench/internal/vector/memory"
)

func TestStrictCitationMatching(t *testing.T) {
	d1 := uuid.New()
	d2 := uuid.New()
	expected := []types.Citation{{DocumentID: d1, SourceRef: "page=5"}}

	// The top-ranked candidate shares the source_ref but not the document;
	// only the rank-2 candidate matches jointly.
	retrieved := []types.Citation{
		{DocumentID: d2, SourceRef: "page=5"},
		{DocumentID: d1, SourceRef: "page=5"},
	}
	if got := recallAtK(expected, retrieved, 5); got != 1.0 {
		t.Fatalf("expected recall 1.0, got %f", got)
	}
	if got := reciprocalRank(expected, retrieved); got != 0.5 {
		t.Fatalf("expected MRR contribution 0.5 from rank 2, got %f", got)
	}

	// Same document, different source_ref: no match on either metric.
	miss := []types.Citation{{DocumentID: d1, SourceRef: "page=4"}}
	if got := recallAtK(expected, miss, 5); got != 0 {
		t.Fatalf("source_ref mismatch must not count, got recall %f", got)
	}
	if got := reciprocalRank(expected, miss); got != 0 {
		t.Fatalf("source_ref mismatch must not count, got rr %f", got)
	}

	// Recall only considers the top-k prefix.
	if got := recallAtK(expected, retrieved, 1); got != 0 {
		t.Fatalf("match beyond k must not count, got recall %f", got)
	}
}

func TestAggregateCompositeAndCoverage(t *testing.T) {
	results := []*types.EvaluationResult{
		{RecallAtK: 1.0, MRR: 1.0, SemanticSimilarity: 0.9, SemanticCorrect: true, CitationHit: true, RetrievedCount: 5},
		{RecallAtK: 0.5, MRR: 0.5, SemanticSimilarity: 0.5, SemanticCorrect: false, CitationHit: true, RetrievedCount: 3},
		{Failed: true},
	}
	agg := aggregate(results, 5)

	if agg.NumItems != 3 || agg.NumFailed != 1 {
		t.Fatalf("unexpected counts: %+v", agg)
	}
	if got, want := agg.MeanRecallAtK, 0.5; got != want {
		t.Fatalf("mean recall %f, want %f", got, want)
	}
	if got, want := agg.MeanMRR, 0.5; got != want {
		t.Fatalf("mean mrr %f, want %f", got, want)
	}
	if got, want := agg.SemanticCorrectRate, 1.0/3.0; got != want {
		t.Fatalf("semantic correct rate %f, want %f", got, want)
	}
	if got, want := agg.CitationHitRate, 2.0/3.0; got != want {
		t.Fatalf("citation hit rate %f, want %f", got, want)
	}
	if got, want := agg.EmbeddingCoverage, 8.0/15.0; got != want {
		t.Fatalf("coverage %f, want %f", got, want)
	}
	want := 0.30*0.5 + 0.20*0.5 + 0.30*(1.0/3.0) + 0.20*(2.0/3.0)
	if diff := agg.CompositeScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("composite %f, want %f", agg.CompositeScore, want)
	}
	for name, v := range map[string]float64{
		"recall":    agg.MeanRecallAtK,
		"mrr":       agg.MeanMRR,
		"correct":   agg.SemanticCorrectRate,
		"hit":       agg.CitationHitRate,
		"coverage":  agg.EmbeddingCoverage,
		"composite": agg.CompositeScore,
	} {
		if v < 0 || v > 1 {
			t.Fatalf("%s out of [0,1]: %f", name, v)
		}
	}
}

// evalEmbedder returns a fixed unit vector for every input, and errors for
// inputs containing the poison marker.
type evalEmbedder struct{}

func (evalEmbedder) Embed(_ context.Context, inputs []string, _ string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		if strings.Contains(in, "POISON") {
			return nil, fmt.Errorf("embedder refused input")
		}
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type evalGenerator struct{}

func (evalGenerator) GenerateText(context.Context, string, string) (string, error) {
	return "A grounded answer citing [Source 1].", nil
}

func (evalGenerator) GeneratorModel() string { return "fake-generator" }

func TestEvaluatorRunPersistsAndContainsFailures(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	profile := testutil.SeedProfile(t, ctx, db, "eval-"+uuid.NewString(), 256, 32, false)
	doc := testutil.SeedDocument(t, ctx, db, strings.Repeat("c", 60)+uuid.NewString()[:4])
	section := testutil.SeedSection(t, ctx, db, doc.ID, 0, "page=5")
	chunk := testutil.SeedChunk(t, ctx, db, doc.ID, section.ID, profile.ID, 0, "page=5")

	store := memory.NewStore()
	if err := store.Upsert(ctx, "m", profile.ID, []vector.Vector{{ChunkID: chunk.ID, Values: []float32{1, 0}}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	chunks := repos.NewChunkRepo(db, log)
	retriever := retrieval.NewRetriever(log, chunks, store, evalEmbedder{})
	evaluator := NewEvaluator(log, retriever, evalEmbedder{}, evalGenerator{}, repos.NewEvaluationRepo(db, log))

	items := []types.EvaluationItem{
		{
			ID:              "q1",
			Question:        "What does page five say?",
			ExpectedAnswer:  "It says the thing.",
			ExpectedSources: []types.Citation{{DocumentID: doc.ID, SourceRef: "page=5"}},
		},
		{
			ID:              "q2",
			Question:        "POISON question that cannot be embedded",
			ExpectedAnswer:  "irrelevant",
			ExpectedSources: []types.Citation{{DocumentID: doc.ID, SourceRef: "page=5"}},
		},
	}

	run, results, err := evaluator.Run(ctx, Params{
		DatasetName:         "golden-test",
		Items:               items,
		Profile:             profile,
		EmbeddingModel:      "m",
		TopK:                5,
		SimilarityThreshold: 0.5,
		SemanticThreshold:   0.75,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("a failing item must not abort the run, got %d results", len(results))
	}

	good, bad := results[0], results[1]
	if good.RecallAtK != 1.0 || good.MRR != 1.0 || !good.CitationHit {
		t.Fatalf("unexpected metrics for the good item: %+v", good)
	}
	if !good.SemanticCorrect || good.SemanticSimilarity < 0.999 {
		t.Fatalf("identical answer embeddings should be semantically correct: %+v", good)
	}
	if !bad.Failed || bad.ErrorMessage == "" {
		t.Fatalf("the poisoned item must be flagged as failed: %+v", bad)
	}
	if bad.RecallAtK != 0 || bad.MRR != 0 || bad.SemanticCorrect || bad.CitationHit {
		t.Fatalf("failed items must score zero credit: %+v", bad)
	}

	// The run and its results are persisted and scoped under the run id.
	dbc := dbctx.New(ctx)
	evalRepo := repos.NewEvaluationRepo(db, log)
	stored, err := evalRepo.GetRun(dbc, run.ID)
	if err != nil || stored == nil {
		t.Fatalf("run not persisted: %v", err)
	}
	var agg Aggregate
	if err := json.Unmarshal(stored.Metrics, &agg); err != nil {
		t.Fatalf("metrics not parseable: %v", err)
	}
	if agg.NumItems != 2 || agg.NumFailed != 1 {
		t.Fatalf("unexpected aggregate: %+v", agg)
	}
	if agg.MeanRecallAtK != 0.5 || agg.CitationHitRate != 0.5 {
		t.Fatalf("zero-credit failure should halve the means: %+v", agg)
	}
	storedResults, err := evalRepo.GetResultsByRun(dbc, run.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(storedResults) != 2 {
		t.Fatalf("expected 2 persisted results, got %d", len(storedResults))
	}
}
