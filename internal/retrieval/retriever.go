package retrieval

import (
	"context"

	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
	"github.com/IGabriel/ai-knowledge-bench/internal/vector"
)

// Candidate is one retrieved chunk with its provenance and score.
type Candidate struct {
	ChunkID    uuid.UUID `json:"chunk_id"`
	DocumentID uuid.UUID `json:"document_id"`
	SourceRef  string    `json:"source_ref"`
	Text       string    `json:"text"`
	Score      float64   `json:"score"`
}

// Embedder is the slice of the model client the retriever needs.
type Embedder interface {
	Embed(ctx context.Context, inputs []string, model string) ([][]float32, error)
}

// Retriever answers similarity queries against one (model, profile) scope.
// Results are ordered by descending cosine similarity, filtered by the
// threshold, and truncated to topK. An empty result is a valid outcome, not
// an error.
type Retriever struct {
	log      *logger.Logger
	chunks   repos.ChunkRepo
	store    vector.Store
	embedder Embedder
}

func NewRetriever(baseLog *logger.Logger, chunks repos.ChunkRepo, store vector.Store, embedder Embedder) *Retriever {
	return &Retriever{
		log:      baseLog.With("service", "Retriever"),
		chunks:   chunks,
		store:    store,
		embedder: embedder,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query, model string, profileID uuid.UUID, topK int, threshold float64) ([]Candidate, error) {
	if topK <= 0 {
		return []Candidate{}, nil
	}

	vecs, err := r.embedder.Embed(ctx, []string{query}, model)
	if err != nil {
		return nil, &types.RetrievalError{Err: err}
	}
	if len(vecs) != 1 {
		return nil, &types.RetrievalError{Err: errBadQueryEmbedding}
	}

	matches, err := r.store.Query(ctx, model, profileID, vecs[0], topK)
	if err != nil {
		return nil, &types.RetrievalError{Err: err}
	}

	kept := matches[:0]
	ids := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		if m.Score < threshold {
			continue
		}
		kept = append(kept, m)
		ids = append(ids, m.ChunkID)
	}
	if len(kept) == 0 {
		return []Candidate{}, nil
	}

	rows, err := r.chunks.GetByIDs(dbctx.New(ctx), ids)
	if err != nil {
		return nil, &types.RetrievalError{Err: err}
	}
	byID := make(map[uuid.UUID]*types.DocumentChunk, len(rows))
	for _, c := range rows {
		byID[c.ID] = c
	}

	candidates := make([]Candidate, 0, len(kept))
	for _, m := range kept {
		chunk, ok := byID[m.ChunkID]
		if !ok {
			r.log.Warn("Embedding references a missing chunk", "chunk_id", m.ChunkID.String())
			continue
		}
		candidates = append(candidates, Candidate{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			SourceRef:  chunk.SourceRef,
			Text:       chunk.Text,
			Score:      m.Score,
		})
	}
	return candidates, nil
}
