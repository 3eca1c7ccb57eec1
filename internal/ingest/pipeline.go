package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/data/blob"
	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/ingest/extractor"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
	"github.com/IGabriel/ai-knowledge-bench/internal/realtime"
	"github.com/IGabriel/ai-knowledge-bench/internal/vector"
)

// embedBatchSize bounds how many chunk texts go to the embedder per call.
const embedBatchSize = 64

// Embedder is the slice of the model client the pipeline needs.
type Embedder interface {
	Embed(ctx context.Context, inputs []string, model string) ([][]float32, error)
}

// Notifier receives document status transitions. Implementations must not
// block the pipeline.
type Notifier interface {
	Notify(ctx context.Context, ev realtime.StatusEvent)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, realtime.StatusEvent) {}

// Pipeline drives one document through extract, chunk, and embed. Every
// stage checks whether its output already exists for (document, profile)
// before producing it, so redelivered jobs are no-ops for completed stages
// and a retried failure resumes from the first incomplete stage.
type Pipeline struct {
	log        *logger.Logger
	documents  repos.DocumentRepo
	sections   repos.SectionRepo
	chunks     repos.ChunkRepo
	blobs      blob.Store
	store      vector.Store
	embedder   Embedder
	notify     Notifier
	embedModel string
}

func NewPipeline(
	baseLog *logger.Logger,
	documents repos.DocumentRepo,
	sections repos.SectionRepo,
	chunks repos.ChunkRepo,
	blobs blob.Store,
	store vector.Store,
	embedder Embedder,
	notify Notifier,
	embedModel string,
) *Pipeline {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Pipeline{
		log:        baseLog.With("service", "IngestPipeline"),
		documents:  documents,
		sections:   sections,
		chunks:     chunks,
		blobs:      blobs,
		store:      store,
		embedder:   embedder,
		notify:     notify,
		embedModel: embedModel,
	}
}

// Run processes one claimed job. Ingest jobs walk the document through the
// full status lifecycle; reindex jobs build a new chunk generation for the
// target profile and leave the document's top-level status alone while other
// profiles remain ready.
func (p *Pipeline) Run(ctx context.Context, job *types.IngestJob, profile *types.ChunkProfile) error {
	dbc := dbctx.New(ctx)
	doc, err := p.documents.GetByID(dbc, job.DocumentID)
	if err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("document %s not found", job.DocumentID)
	}
	if profile == nil {
		return types.NewConfigError("chunk profile %s not found", job.ChunkProfileID)
	}

	log := p.log.With("document_id", doc.ID.String(), "profile_id", profile.ID.String(), "kind", job.Kind)

	// A reindex of a document that is already ready for other profiles keeps
	// its top-level status; everything else walks the full lifecycle.
	mutateStatus := true
	if job.Kind == types.IngestJobKindReindex {
		ready, err := p.documents.ReadyProfileIDs(dbc, doc.ID)
		if err != nil {
			return err
		}
		mutateStatus = len(ready) == 0
	}

	if err := p.runStages(ctx, dbc, doc, profile, mutateStatus); err != nil {
		log.Error("Document processing failed", "error", err)
		if mutateStatus {
			if serr := p.documents.SetStatus(dbc, doc.ID, types.DocumentStatusFailed, err.Error()); serr != nil {
				log.Error("Failed to record failure status", "error", serr)
			}
		}
		p.emit(ctx, doc.ID, profile.ID, types.DocumentStatusFailed, stageOf(err), err.Error())
		return err
	}

	if err := p.documents.AddReadyProfile(dbc, doc.ID, profile.ID); err != nil {
		return err
	}
	if err := p.documents.SetStatus(dbc, doc.ID, types.DocumentStatusReady, ""); err != nil {
		return err
	}
	p.emit(ctx, doc.ID, profile.ID, types.DocumentStatusReady, "", "")
	log.Info("Document ready")
	return nil
}

func (p *Pipeline) runStages(ctx context.Context, dbc dbctx.Context, doc *types.Document, profile *types.ChunkProfile, mutateStatus bool) error {
	if err := p.extractStage(ctx, dbc, doc, profile, mutateStatus); err != nil {
		return types.NewIngestError(types.IngestStageExtraction, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.chunkStage(ctx, dbc, doc, profile, mutateStatus); err != nil {
		return types.NewIngestError(types.IngestStageChunking, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.embedStage(ctx, dbc, doc, profile, mutateStatus); err != nil {
		return types.NewIngestError(types.IngestStageEmbedding, err)
	}
	return nil
}

func (p *Pipeline) extractStage(ctx context.Context, dbc dbctx.Context, doc *types.Document, profile *types.ChunkProfile, mutateStatus bool) error {
	count, err := p.sections.CountByDocumentID(dbc, doc.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	p.transition(ctx, dbc, doc, profile, types.DocumentStatusExtracting, types.IngestStageExtraction, mutateStatus)

	data, err := p.blobs.Load(doc.StoragePath)
	if err != nil {
		return err
	}
	ex, err := extractor.ForFormat(doc.Format)
	if err != nil {
		return err
	}
	extracted, err := ex.Extract(data)
	if err != nil {
		return err
	}

	rows := make([]*types.DocumentSection, 0, len(extracted))
	for i, s := range extracted {
		rows = append(rows, &types.DocumentSection{
			DocumentID:   doc.ID,
			SectionIndex: i,
			SourceRef:    s.SourceRef,
			Text:         s.Text,
		})
	}
	return p.sections.CreateIgnoreConflicts(dbc, rows)
}

func (p *Pipeline) chunkStage(ctx context.Context, dbc dbctx.Context, doc *types.Document, profile *types.ChunkProfile, mutateStatus bool) error {
	existing, err := p.chunks.CountByDocumentAndProfile(dbc, doc.ID, profile.ID)
	if err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	p.transition(ctx, dbc, doc, profile, types.DocumentStatusChunking, types.IngestStageChunking, mutateStatus)

	secs, err := p.sections.GetByDocumentID(dbc, doc.ID)
	if err != nil {
		return err
	}
	var rows []*types.DocumentChunk
	for _, sec := range secs {
		for i, piece := range Chunk(sec.Text, *profile) {
			rows = append(rows, &types.DocumentChunk{
				DocumentID:     doc.ID,
				SectionID:      sec.ID,
				ChunkProfileID: profile.ID,
				ChunkIndex:     i,
				Text:           piece,
				SourceRef:      sec.SourceRef,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return p.chunks.CreateIgnoreConflicts(dbc, rows)
}

func (p *Pipeline) embedStage(ctx context.Context, dbc dbctx.Context, doc *types.Document, profile *types.ChunkProfile, mutateStatus bool) error {
	chs, err := p.chunks.GetByDocumentAndProfile(dbc, doc.ID, profile.ID)
	if err != nil {
		return err
	}
	if len(chs) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(chs))
	for _, c := range chs {
		ids = append(ids, c.ID)
	}
	embedded, err := p.store.ExistingChunkIDs(ctx, p.embedModel, profile.ID, ids)
	if err != nil {
		return err
	}
	var pending []*types.DocumentChunk
	for _, c := range chs {
		if !embedded[c.ID] {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	p.transition(ctx, dbc, doc, profile, types.DocumentStatusEmbedding, types.IngestStageEmbedding, mutateStatus)

	for start := 0; start < len(pending); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]
		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vecs, err := p.embedder.Embed(ctx, texts, p.embedModel)
		if err != nil {
			return err
		}
		if len(vecs) != len(batch) {
			return fmt.Errorf("embedder returned %d vectors for %d inputs", len(vecs), len(batch))
		}
		rows := make([]vector.Vector, len(batch))
		for i, c := range batch {
			rows[i] = vector.Vector{ChunkID: c.ID, Values: vecs[i]}
		}
		if err := p.store.Upsert(ctx, p.embedModel, profile.ID, rows); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) transition(ctx context.Context, dbc dbctx.Context, doc *types.Document, profile *types.ChunkProfile, status, stage string, mutateStatus bool) {
	if mutateStatus {
		if err := p.documents.SetStatus(dbc, doc.ID, status, ""); err != nil {
			p.log.Warn("Failed to persist status transition", "document_id", doc.ID.String(), "status", status, "error", err)
		}
	}
	p.emit(ctx, doc.ID, profile.ID, status, stage, "")
}

func (p *Pipeline) emit(ctx context.Context, docID, profileID uuid.UUID, status, stage, errMsg string) {
	p.notify.Notify(ctx, realtime.StatusEvent{
		DocumentID:     docID,
		ChunkProfileID: profileID,
		Status:         status,
		Stage:          stage,
		Error:          errMsg,
		At:             time.Now().UTC(),
	})
}

func stageOf(err error) string {
	var ie *types.IngestError
	if errors.As(err, &ie) {
		return ie.Stage
	}
	return ""
}
