package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/data/blob"
	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/ingest"
	"github.com/IGabriel/ai-knowledge-bench/internal/ingest/extractor"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

// DocumentService accepts uploads, dedupes them by content hash, and queues
// ingestion work. Ingestion is refused when no chunk profile is active.
type DocumentService interface {
	Upload(ctx context.Context, originalName string, data []byte) (*types.Document, bool, error)
	Reindex(ctx context.Context, documentID, profileID uuid.UUID) (*types.IngestJob, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Document, error)
	List(ctx context.Context, limit, offset int) ([]*types.Document, error)
}

type documentService struct {
	log       *logger.Logger
	documents repos.DocumentRepo
	profiles  repos.ChunkProfileRepo
	jobs      repos.IngestJobRepo
	blobs     blob.Store
}

func NewDocumentService(baseLog *logger.Logger, documents repos.DocumentRepo, profiles repos.ChunkProfileRepo, jobs repos.IngestJobRepo, blobs blob.Store) DocumentService {
	return &documentService{
		log:       baseLog.With("service", "DocumentService"),
		documents: documents,
		profiles:  profiles,
		jobs:      jobs,
		blobs:     blobs,
	}
}

func (s *documentService) Upload(ctx context.Context, originalName string, data []byte) (*types.Document, bool, error) {
	if len(data) == 0 {
		return nil, false, types.NewConfigError("empty upload")
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(originalName)), ".")
	if _, err := extractor.ForFormat(format); err != nil {
		return nil, false, types.NewConfigError("%v", err)
	}

	dbc := dbctx.New(ctx)
	profile, err := s.profiles.GetActive(dbc)
	if err != nil {
		return nil, false, err
	}

	sha := ingest.Fingerprint(data)
	path, err := s.blobs.Save(sha, data)
	if err != nil {
		return nil, false, err
	}

	doc, created, err := s.documents.CreateOrGetBySHA256(dbc, &types.Document{
		SHA256:       sha,
		OriginalName: originalName,
		Format:       format,
		SizeBytes:    int64(len(data)),
		StoragePath:  path,
		Status:       types.DocumentStatusUploaded,
	})
	if err != nil {
		return nil, false, err
	}

	// Enqueue even for a dedup hit: the pipeline stages are idempotent, and
	// a previously failed document gets its retry this way.
	if _, err := s.jobs.Enqueue(dbc, []*types.IngestJob{{
		Kind:           types.IngestJobKindIngest,
		DocumentID:     doc.ID,
		ChunkProfileID: profile.ID,
	}}); err != nil {
		return nil, false, err
	}

	s.log.Info("Upload accepted",
		"document_id", doc.ID.String(),
		"sha256", sha,
		"created", created,
		"profile_id", profile.ID.String())
	return doc, created, nil
}

func (s *documentService) Reindex(ctx context.Context, documentID, profileID uuid.UUID) (*types.IngestJob, error) {
	dbc := dbctx.New(ctx)
	doc, err := s.documents.GetByID(dbc, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s not found", documentID)
	}
	if doc.Status != types.DocumentStatusReady && doc.Status != types.DocumentStatusFailed {
		return nil, types.NewConfigError("document %s is %s; reindex requires ready or failed", documentID, doc.Status)
	}
	profile, err := s.profiles.GetByID(dbc, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, types.NewConfigError("chunk profile %s not found", profileID)
	}

	jobs, err := s.jobs.Enqueue(dbc, []*types.IngestJob{{
		Kind:           types.IngestJobKindReindex,
		DocumentID:     doc.ID,
		ChunkProfileID: profile.ID,
	}})
	if err != nil {
		return nil, err
	}
	s.log.Info("Reindex queued", "document_id", doc.ID.String(), "profile_id", profile.ID.String())
	return jobs[0], nil
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*types.Document, error) {
	return s.documents.GetByID(dbctx.New(ctx), id)
}

func (s *documentService) List(ctx context.Context, limit, offset int) ([]*types.Document, error) {
	return s.documents.List(dbctx.New(ctx), limit, offset)
}
