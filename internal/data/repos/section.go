package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

type SectionRepo interface {
	// CreateIgnoreConflicts inserts sections, skipping rows whose
	// (document_id, source_ref) already exist. Redelivered extraction runs
	// therefore never duplicate sections.
	CreateIgnoreConflicts(dbc dbctx.Context, sections []*types.DocumentSection) error
	GetByDocumentID(dbc dbctx.Context, documentID uuid.UUID) ([]*types.DocumentSection, error)
	CountByDocumentID(dbc dbctx.Context, documentID uuid.UUID) (int64, error)
}

type sectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	return &sectionRepo{db: db, log: baseLog.With("repo", "SectionRepo")}
}

func (r *sectionRepo) CreateIgnoreConflicts(dbc dbctx.Context, sections []*types.DocumentSection) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(sections) == 0 {
		return nil
	}
	for _, s := range sections {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
	}
	const batchSize = 100
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}, {Name: "source_ref"}},
			DoNothing: true,
		}).
		CreateInBatches(sections, batchSize).Error
}

func (r *sectionRepo) GetByDocumentID(dbc dbctx.Context, documentID uuid.UUID) ([]*types.DocumentSection, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.DocumentSection
	if documentID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("document_id = ?", documentID).
		Order("section_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sectionRepo) CountByDocumentID(dbc dbctx.Context, documentID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.DocumentSection{}).
		Where("document_id = ?", documentID).
		Count(&n).Error
	return n, err
}
