package repos

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

type DocumentRepo interface {
	// CreateOrGetBySHA256 resolves a fingerprint to exactly one Document.
	// The insert uses ON CONFLICT DO NOTHING so concurrent uploads of the same
	// bytes converge on a single row; the bool reports whether this call
	// created it.
	CreateOrGetBySHA256(dbc dbctx.Context, doc *types.Document) (*types.Document, bool, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error)
	List(dbc dbctx.Context, limit, offset int) ([]*types.Document, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SetStatus(dbc dbctx.Context, id uuid.UUID, status string, errorMessage string) error
	AddReadyProfile(dbc dbctx.Context, id uuid.UUID, profileID uuid.UUID) error
	ReadyProfileIDs(dbc dbctx.Context, id uuid.UUID) ([]uuid.UUID, error)
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) CreateOrGetBySHA256(dbc dbctx.Context, doc *types.Document) (*types.Document, bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if len(doc.ReadyProfiles) == 0 {
		doc.ReadyProfiles = []byte("[]")
	}
	res := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sha256"}},
			DoNothing: true,
		}).
		Create(doc)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return doc, true, nil
	}
	var existing types.Document
	if err := transaction.WithContext(dbc.Ctx).
		Where("sha256 = ?", doc.SHA256).
		First(&existing).Error; err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

func (r *documentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var doc types.Document
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&doc).Error
	if err != nil {
		return nil, err
	}
	if doc.ID == uuid.Nil {
		return nil, nil
	}
	return &doc, nil
}

func (r *documentRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.Document, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.Document
	if err := transaction.WithContext(dbc.Ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.Document{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *documentRepo) SetStatus(dbc dbctx.Context, id uuid.UUID, status string, errorMessage string) error {
	return r.UpdateFields(dbc, id, map[string]interface{}{
		"status":        status,
		"error_message": errorMessage,
	})
}

func (r *documentRepo) AddReadyProfile(dbc dbctx.Context, id uuid.UUID, profileID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		var doc types.Document
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&doc).Error; err != nil {
			return err
		}
		ids, err := decodeProfileIDs(doc.ReadyProfiles)
		if err != nil {
			ids = nil
		}
		for _, existing := range ids {
			if existing == profileID {
				return nil
			}
		}
		ids = append(ids, profileID)
		raw, err := json.Marshal(ids)
		if err != nil {
			return err
		}
		return tx.Model(&types.Document{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"ready_profiles": raw,
				"updated_at":     time.Now().UTC(),
			}).Error
	})
}

func (r *documentRepo) ReadyProfileIDs(dbc dbctx.Context, id uuid.UUID) ([]uuid.UUID, error) {
	doc, err := r.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return decodeProfileIDs(doc.ReadyProfiles)
}

func decodeProfileIDs(raw []byte) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
