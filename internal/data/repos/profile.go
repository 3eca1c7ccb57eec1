package repos

import (
	"errors"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

// ChunkProfileRepo is the profile registry. Activation is a single
// transaction so readers never observe zero or two active profiles.
type ChunkProfileRepo interface {
	Create(dbc dbctx.Context, name, description string, chunkSize, chunkOverlap int) (*types.ChunkProfile, error)
	Activate(dbc dbctx.Context, id uuid.UUID) (*types.ChunkProfile, error)
	GetActive(dbc dbctx.Context) (*types.ChunkProfile, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChunkProfile, error)
	List(dbc dbctx.Context) ([]*types.ChunkProfile, error)
}

type chunkProfileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkProfileRepo(db *gorm.DB, baseLog *logger.Logger) ChunkProfileRepo {
	return &chunkProfileRepo{db: db, log: baseLog.With("repo", "ChunkProfileRepo")}
}

func ValidateProfileParams(chunkSize, chunkOverlap int) error {
	if chunkSize <= 0 {
		return types.NewConfigError("chunk_size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return types.NewConfigError("chunk_overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d", chunkOverlap, chunkSize)
	}
	return nil
}

func (r *chunkProfileRepo) Create(dbc dbctx.Context, name, description string, chunkSize, chunkOverlap int) (*types.ChunkProfile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if name == "" {
		return nil, types.NewConfigError("profile name is required")
	}
	if err := ValidateProfileParams(chunkSize, chunkOverlap); err != nil {
		return nil, err
	}
	p := &types.ChunkProfile{
		ID:           uuid.New(),
		Name:         name,
		Description:  description,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		IsActive:     false,
	}
	if err := transaction.WithContext(dbc.Ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *chunkProfileRepo) Activate(dbc dbctx.Context, id uuid.UUID) (*types.ChunkProfile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var activated types.ChunkProfile
	err := transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		// Concurrent activations of different profiles touch disjoint rows,
		// so row locks alone let two commits both end up active. Serialize
		// on an advisory lock held for the transaction.
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", advisoryKey64("chunk_profile_activate")).Error; err != nil {
			return err
		}
		var target types.ChunkProfile
		if err := tx.Where("id = ?", id).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.NewConfigError("chunk profile %s not found", id)
			}
			return err
		}
		now := time.Now().UTC()
		if err := tx.Model(&types.ChunkProfile{}).
			Where("is_active = ?", true).
			Updates(map[string]interface{}{"is_active": false, "updated_at": now}).Error; err != nil {
			return err
		}
		if err := tx.Model(&types.ChunkProfile{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"is_active": true, "updated_at": now}).Error; err != nil {
			return err
		}
		target.IsActive = true
		target.UpdatedAt = now
		activated = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &activated, nil
}

func advisoryKey64(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}

func (r *chunkProfileRepo) GetActive(dbc dbctx.Context) (*types.ChunkProfile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.ChunkProfile
	err := transaction.WithContext(dbc.Ctx).
		Where("is_active = ?", true).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, types.ErrNoActiveProfile
	}
	return &p, nil
}

func (r *chunkProfileRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ChunkProfile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.ChunkProfile
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *chunkProfileRepo) List(dbc dbctx.Context) ([]*types.ChunkProfile, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ChunkProfile
	if err := transaction.WithContext(dbc.Ctx).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
