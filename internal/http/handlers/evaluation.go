package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/eval"
	"github.com/IGabriel/ai-knowledge-bench/internal/http/response"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

type EvaluationHandler struct {
	log       *logger.Logger
	evaluator *eval.Evaluator
	runs      repos.EvaluationRepo
	profiles  repos.ChunkProfileRepo
	defaults  RetrievalDefaults
	// Semantic-correct cosine threshold for answers.
	semanticThreshold float64
}

func NewEvaluationHandler(log *logger.Logger, evaluator *eval.Evaluator, runs repos.EvaluationRepo, profiles repos.ChunkProfileRepo, defaults RetrievalDefaults, semanticThreshold float64) *EvaluationHandler {
	return &EvaluationHandler{
		log:               log.With("handler", "EvaluationHandler"),
		evaluator:         evaluator,
		runs:              runs,
		profiles:          profiles,
		defaults:          defaults,
		semanticThreshold: semanticThreshold,
	}
}

type runEvaluationRequest struct {
	DatasetPath         string     `json:"dataset_path" binding:"required"`
	ProfileID           *uuid.UUID `json:"profile_id"`
	TopK                *int       `json:"top_k"`
	SimilarityThreshold *float64   `json:"similarity_threshold"`
	EmbeddingModel      string     `json:"embedding_model"`
}

// POST /api/evaluations
// Runs the golden set synchronously and returns the persisted run.
func (h *EvaluationHandler) Run(c *gin.Context) {
	var req runEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	name, items, err := eval.LoadDataset(req.DatasetPath)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_dataset", err)
		return
	}

	dbc := dbctx.New(c.Request.Context())
	var profile *types.ChunkProfile
	if req.ProfileID != nil {
		profile, err = h.profiles.GetByID(dbc, *req.ProfileID)
		if err == nil && profile == nil {
			err = types.NewConfigError("chunk profile %s not found", *req.ProfileID)
		}
	} else {
		profile, err = h.profiles.GetActive(dbc)
	}
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}

	params := eval.Params{
		DatasetName:         name,
		Items:               items,
		Profile:             profile,
		EmbeddingModel:      h.defaults.EmbeddingModel,
		TopK:                h.defaults.TopK,
		SimilarityThreshold: h.defaults.SimilarityThreshold,
		SemanticThreshold:   h.semanticThreshold,
	}
	if req.EmbeddingModel != "" {
		params.EmbeddingModel = req.EmbeddingModel
	}
	if req.TopK != nil {
		params.TopK = *req.TopK
	}
	if req.SimilarityThreshold != nil {
		params.SimilarityThreshold = *req.SimilarityThreshold
	}

	run, results, err := h.evaluator.Run(c.Request.Context(), params)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"run": run, "results": results})
}

// GET /api/evaluations
func (h *EvaluationHandler) ListRuns(c *gin.Context) {
	runs, err := h.runs.ListRuns(dbctx.New(c.Request.Context()), intQuery(c, "limit", 50))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"runs": runs})
}

// GET /api/evaluations/:id
func (h *EvaluationHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	dbc := dbctx.New(c.Request.Context())
	run, err := h.runs.GetRun(dbc, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if run == nil {
		response.RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	results, err := h.runs.GetResultsByRun(dbc, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"run": run, "results": results})
}
