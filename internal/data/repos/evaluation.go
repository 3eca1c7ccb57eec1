package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

type EvaluationRepo interface {
	CreateRun(dbc dbctx.Context, run *types.EvaluationRun) (*types.EvaluationRun, error)
	CreateResults(dbc dbctx.Context, results []*types.EvaluationResult) error
	GetRun(dbc dbctx.Context, id uuid.UUID) (*types.EvaluationRun, error)
	ListRuns(dbc dbctx.Context, limit int) ([]*types.EvaluationRun, error)
	GetResultsByRun(dbc dbctx.Context, runID uuid.UUID) ([]*types.EvaluationResult, error)
}

type evaluationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvaluationRepo(db *gorm.DB, baseLog *logger.Logger) EvaluationRepo {
	return &evaluationRepo{db: db, log: baseLog.With("repo", "EvaluationRepo")}
}

func (r *evaluationRepo) CreateRun(dbc dbctx.Context, run *types.EvaluationRun) (*types.EvaluationRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if len(run.Metrics) == 0 {
		run.Metrics = []byte("{}")
	}
	if err := transaction.WithContext(dbc.Ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *evaluationRepo) CreateResults(dbc dbctx.Context, results []*types.EvaluationResult) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(results) == 0 {
		return nil
	}
	for _, res := range results {
		if res.ID == uuid.Nil {
			res.ID = uuid.New()
		}
		if len(res.RetrievedCites) == 0 {
			res.RetrievedCites = []byte("[]")
		}
	}
	const batchSize = 100
	return transaction.WithContext(dbc.Ctx).CreateInBatches(results, batchSize).Error
}

func (r *evaluationRepo) GetRun(dbc dbctx.Context, id uuid.UUID) (*types.EvaluationRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var run types.EvaluationRun
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&run).Error
	if err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

func (r *evaluationRepo) ListRuns(dbc dbctx.Context, limit int) ([]*types.EvaluationRun, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.EvaluationRun
	if err := transaction.WithContext(dbc.Ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *evaluationRepo) GetResultsByRun(dbc dbctx.Context, runID uuid.UUID) ([]*types.EvaluationResult, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.EvaluationResult
	if runID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("run_id = ?", runID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
