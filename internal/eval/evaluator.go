package eval

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
	"github.com/IGabriel/ai-knowledge-bench/internal/retrieval"
	"github.com/IGabriel/ai-knowledge-bench/internal/vector"
)

// Composite score weights.
const (
	weightRecall          = 0.30
	weightMRR             = 0.20
	weightSemanticCorrect = 0.30
	weightCitationHit     = 0.20
)

// Generator is the slice of the model client the evaluator needs.
type Generator interface {
	GenerateText(ctx context.Context, system, user string) (string, error)
	GeneratorModel() string
}

// Params configure one evaluation run.
type Params struct {
	DatasetName         string
	Items               []types.EvaluationItem
	Profile             *types.ChunkProfile
	EmbeddingModel      string
	TopK                int
	SimilarityThreshold float64
	// SemanticThreshold is the cosine similarity above which a generated
	// answer counts as semantically correct.
	SemanticThreshold float64
}

// Aggregate holds run-level metrics across all items, failed items included
// as zero-credit outcomes.
type Aggregate struct {
	NumItems               int     `json:"num_items"`
	NumFailed              int     `json:"num_failed"`
	MeanRecallAtK          float64 `json:"mean_recall_at_k"`
	MeanMRR                float64 `json:"mean_mrr"`
	MeanSemanticSimilarity float64 `json:"mean_semantic_similarity"`
	SemanticCorrectRate    float64 `json:"semantic_correct_rate"`
	CitationHitRate        float64 `json:"citation_hit_rate"`
	EmbeddingCoverage      float64 `json:"embedding_coverage"`
	CompositeScore         float64 `json:"composite_score"`
}

// Evaluator scores a golden set against one (profile, model) configuration.
// Item failures are contained: a failed item is recorded as zero-credit and
// flagged, and the run continues.
type Evaluator struct {
	log       *logger.Logger
	retriever *retrieval.Retriever
	embedder  retrieval.Embedder
	generator Generator
	runs      repos.EvaluationRepo
}

func NewEvaluator(baseLog *logger.Logger, retriever *retrieval.Retriever, embedder retrieval.Embedder, generator Generator, runs repos.EvaluationRepo) *Evaluator {
	return &Evaluator{
		log:       baseLog.With("service", "Evaluator"),
		retriever: retriever,
		embedder:  embedder,
		generator: generator,
		runs:      runs,
	}
}

// Run evaluates every item, persists the run with its aggregate metrics and
// per-item results, and returns both.
func (e *Evaluator) Run(ctx context.Context, p Params) (*types.EvaluationRun, []*types.EvaluationResult, error) {
	if p.Profile == nil {
		return nil, nil, types.NewConfigError("evaluation requires a chunk profile")
	}
	if p.TopK <= 0 {
		return nil, nil, types.NewConfigError("evaluation requires top_k > 0")
	}

	results := make([]*types.EvaluationResult, 0, len(p.Items))
	for _, item := range p.Items {
		results = append(results, e.evaluateItem(ctx, p, item))
	}
	agg := aggregate(results, p.TopK)

	metricsJSON, err := json.Marshal(agg)
	if err != nil {
		return nil, nil, err
	}
	dbc := dbctx.New(ctx)
	run, err := e.runs.CreateRun(dbc, &types.EvaluationRun{
		DatasetName:    p.DatasetName,
		ChunkProfileID: p.Profile.ID,
		EmbeddingModel: p.EmbeddingModel,
		GeneratorModel: e.generator.GeneratorModel(),
		TopK:           p.TopK,
		Metrics:        metricsJSON,
	})
	if err != nil {
		return nil, nil, err
	}
	for _, r := range results {
		r.RunID = run.ID
	}
	if err := e.runs.CreateResults(dbc, results); err != nil {
		return nil, nil, err
	}

	e.log.Info("Evaluation run complete",
		"run_id", run.ID.String(),
		"dataset", p.DatasetName,
		"items", agg.NumItems,
		"failed", agg.NumFailed,
		"composite", agg.CompositeScore)
	return run, results, nil
}

func (e *Evaluator) evaluateItem(ctx context.Context, p Params, item types.EvaluationItem) *types.EvaluationResult {
	res := &types.EvaluationResult{
		ItemID:         item.ID,
		Question:       item.Question,
		RetrievedCites: []byte("[]"),
	}

	candidates, err := e.retriever.Retrieve(ctx, item.Question, p.EmbeddingModel, p.Profile.ID, p.TopK, p.SimilarityThreshold)
	if err != nil {
		e.log.Warn("Item retrieval failed", "item_id", item.ID, "error", err)
		res.Failed = true
		res.ErrorMessage = err.Error()
		return res
	}

	retrieved := make([]types.Citation, len(candidates))
	for i, c := range candidates {
		retrieved[i] = types.Citation{DocumentID: c.DocumentID, SourceRef: c.SourceRef}
	}
	if raw, err := json.Marshal(retrieved); err == nil {
		res.RetrievedCites = raw
	}
	res.RetrievedCount = len(candidates)
	res.RecallAtK = recallAtK(item.ExpectedSources, retrieved, p.TopK)
	res.MRR = reciprocalRank(item.ExpectedSources, retrieved)
	res.CitationHit = res.RecallAtK > 0

	if len(candidates) == 0 {
		return res
	}

	answer, err := e.generator.GenerateText(ctx, retrieval.AnswerSystemPrompt, retrieval.BuildUserPrompt(candidates, item.Question))
	if err != nil {
		e.log.Warn("Item generation failed", "item_id", item.ID, "error", err)
		return zeroCredit(res, fmt.Sprintf("generate answer: %v", err))
	}
	res.GeneratedAnswer = answer

	vecs, err := e.embedder.Embed(ctx, []string{item.ExpectedAnswer, answer}, p.EmbeddingModel)
	if err != nil || len(vecs) != 2 {
		e.log.Warn("Item answer embedding failed", "item_id", item.ID, "error", err)
		return zeroCredit(res, fmt.Sprintf("embed answers: %v", err))
	}
	res.SemanticSimilarity = vector.CosineSimilarity(vecs[0], vecs[1])
	res.SemanticCorrect = res.SemanticSimilarity >= p.SemanticThreshold
	return res
}

// zeroCredit flags the item as failed and strips every metric contribution,
// keeping the retrieved citations for diagnosis.
func zeroCredit(res *types.EvaluationResult, msg string) *types.EvaluationResult {
	res.Failed = true
	res.ErrorMessage = msg
	res.RecallAtK = 0
	res.MRR = 0
	res.SemanticSimilarity = 0
	res.SemanticCorrect = false
	res.CitationHit = false
	return res
}

// recallAtK is the fraction of expected citations found among the top-k
// retrieved (document_id, source_ref) pairs, matched by exact joint equality.
func recallAtK(expected, retrieved []types.Citation, k int) float64 {
	if len(expected) == 0 {
		return 0
	}
	if len(retrieved) > k {
		retrieved = retrieved[:k]
	}
	hits := 0
	for _, exp := range expected {
		for _, ret := range retrieved {
			if exp.DocumentID == ret.DocumentID && exp.SourceRef == ret.SourceRef {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(expected))
}

// reciprocalRank is 1/rank of the first retrieved citation matching any
// expected one, or 0 when none match.
func reciprocalRank(expected, retrieved []types.Citation) float64 {
	for i, ret := range retrieved {
		for _, exp := range expected {
			if exp.DocumentID == ret.DocumentID && exp.SourceRef == ret.SourceRef {
				return 1 / float64(i+1)
			}
		}
	}
	return 0
}

func aggregate(results []*types.EvaluationResult, topK int) Aggregate {
	agg := Aggregate{NumItems: len(results)}
	if len(results) == 0 {
		return agg
	}
	var recall, mrr, sim, correct, hit, retrieved float64
	for _, r := range results {
		if r.Failed {
			agg.NumFailed++
		}
		recall += r.RecallAtK
		mrr += r.MRR
		sim += r.SemanticSimilarity
		if r.SemanticCorrect {
			correct++
		}
		if r.CitationHit {
			hit++
		}
		n := r.RetrievedCount
		if n > topK {
			n = topK
		}
		retrieved += float64(n)
	}
	n := float64(len(results))
	agg.MeanRecallAtK = recall / n
	agg.MeanMRR = mrr / n
	agg.MeanSemanticSimilarity = sim / n
	agg.SemanticCorrectRate = correct / n
	agg.CitationHitRate = hit / n
	agg.EmbeddingCoverage = retrieved / (n * float64(topK))
	agg.CompositeScore = weightRecall*agg.MeanRecallAtK +
		weightMRR*agg.MeanMRR +
		weightSemanticCorrect*agg.SemanticCorrectRate +
		weightCitationHit*agg.CitationHitRate
	return agg
}
