package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

type ChunkRepo interface {
	// CreateIgnoreConflicts inserts chunks, skipping rows whose
	// (section_id, chunk_profile_id, chunk_index) already exist.
	CreateIgnoreConflicts(dbc dbctx.Context, chunks []*types.DocumentChunk) error
	GetByDocumentAndProfile(dbc dbctx.Context, documentID, profileID uuid.UUID) ([]*types.DocumentChunk, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.DocumentChunk, error)
	CountByDocumentAndProfile(dbc dbctx.Context, documentID, profileID uuid.UUID) (int64, error)
}

type chunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return &chunkRepo{db: db, log: baseLog.With("repo", "ChunkRepo")}
}

func (r *chunkRepo) CreateIgnoreConflicts(dbc dbctx.Context, chunks []*types.DocumentChunk) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(chunks) == 0 {
		return nil
	}
	for _, c := range chunks {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
	}

	// Keep batches small because Text is large.
	const batchSize = 100

	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "section_id"}, {Name: "chunk_profile_id"}, {Name: "chunk_index"}},
			DoNothing: true,
		}).
		CreateInBatches(chunks, batchSize).Error
}

func (r *chunkRepo) GetByDocumentAndProfile(dbc dbctx.Context, documentID, profileID uuid.UUID) ([]*types.DocumentChunk, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.DocumentChunk
	if documentID == uuid.Nil || profileID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Select("document_chunk.*").
		Joins("JOIN document_section ON document_section.id = document_chunk.section_id").
		Where("document_chunk.document_id = ? AND document_chunk.chunk_profile_id = ?", documentID, profileID).
		Order("document_section.section_index, document_chunk.chunk_index").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chunkRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.DocumentChunk, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.DocumentChunk
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *chunkRepo) CountByDocumentAndProfile(dbc dbctx.Context, documentID, profileID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.DocumentChunk{}).
		Where("document_id = ? AND chunk_profile_id = ?", documentID, profileID).
		Count(&n).Error
	return n, err
}
