package repos

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

type IngestJobRepo interface {
	Enqueue(dbc dbctx.Context, jobs []*types.IngestJob) ([]*types.IngestJob, error)
	// ClaimNextRunnable atomically claims the oldest runnable job using
	// FOR UPDATE SKIP LOCKED, so concurrent workers never double-claim.
	// Failed jobs become runnable again after retryDelay (up to maxAttempts);
	// running jobs with a stale heartbeat are reclaimed.
	ClaimNextRunnable(dbc dbctx.Context, maxAttempts int, retryDelay, staleRunning time.Duration) (*types.IngestJob, error)
	Heartbeat(dbc dbctx.Context, id uuid.UUID) error
	MarkSucceeded(dbc dbctx.Context, id uuid.UUID) error
	MarkFailed(dbc dbctx.Context, id uuid.UUID, errMsg string) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.IngestJob, error)
}

type ingestJobRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIngestJobRepo(db *gorm.DB, baseLog *logger.Logger) IngestJobRepo {
	return &ingestJobRepo{db: db, log: baseLog.With("repo", "IngestJobRepo")}
}

func (r *ingestJobRepo) Enqueue(dbc dbctx.Context, jobs []*types.IngestJob) ([]*types.IngestJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(jobs) == 0 {
		return []*types.IngestJob{}, nil
	}
	for _, j := range jobs {
		if j.ID == uuid.Nil {
			j.ID = uuid.New()
		}
		if j.Status == "" {
			j.Status = types.IngestJobStatusQueued
		}
		if len(j.Payload) == 0 {
			j.Payload = []byte("{}")
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *ingestJobRepo) ClaimNextRunnable(dbc dbctx.Context, maxAttempts int, retryDelay, staleRunning time.Duration) (*types.IngestJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	retryCutoff := now.Add(-retryDelay)
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.IngestJob
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var job types.IngestJob
		q := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where(`
        (
          status = ?
          OR (
            status = ?
            AND attempts < ?
            AND (last_error_at IS NULL OR last_error_at < ?)
          )
          OR (
            status = ?
            AND heartbeat_at IS NOT NULL
            AND heartbeat_at < ?
          )
        )
      `, types.IngestJobStatusQueued,
				types.IngestJobStatusFailed, maxAttempts, retryCutoff,
				types.IngestJobStatusRunning, staleCutoff).
			Order("created_at ASC")
		qErr := q.First(&job).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		uErr := txx.Model(&types.IngestJob{}).
			Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":       types.IngestJobStatusRunning,
				"attempts":     gorm.Expr("attempts + 1"),
				"locked_at":    now,
				"heartbeat_at": now,
				"updated_at":   now,
			}).Error
		if uErr != nil {
			return uErr
		}
		job.Status = types.IngestJobStatusRunning
		job.Attempts++
		claimed = &job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *ingestJobRepo) Heartbeat(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.IngestJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"heartbeat_at": now, "updated_at": now}).Error
}

func (r *ingestJobRepo) MarkSucceeded(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.IngestJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      types.IngestJobStatusSucceeded,
			"finished_at": now,
			"updated_at":  now,
		}).Error
}

func (r *ingestJobRepo) MarkFailed(dbc dbctx.Context, id uuid.UUID, errMsg string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	return transaction.WithContext(dbc.Ctx).
		Model(&types.IngestJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        types.IngestJobStatusFailed,
			"last_error":    errMsg,
			"last_error_at": now,
			"updated_at":    now,
		}).Error
}

func (r *ingestJobRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.IngestJob, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var job types.IngestJob
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}
