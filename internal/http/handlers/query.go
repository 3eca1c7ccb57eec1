package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/http/response"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
	"github.com/IGabriel/ai-knowledge-bench/internal/retrieval"
)

// RetrievalDefaults seed query parameters the request leaves unset.
type RetrievalDefaults struct {
	EmbeddingModel      string
	TopK                int
	SimilarityThreshold float64
}

type QueryHandler struct {
	log       *logger.Logger
	retriever *retrieval.Retriever
	profiles  repos.ChunkProfileRepo
	defaults  RetrievalDefaults
}

func NewQueryHandler(log *logger.Logger, retriever *retrieval.Retriever, profiles repos.ChunkProfileRepo, defaults RetrievalDefaults) *QueryHandler {
	return &QueryHandler{
		log:       log.With("handler", "QueryHandler"),
		retriever: retriever,
		profiles:  profiles,
		defaults:  defaults,
	}
}

type queryRequest struct {
	Query               string     `json:"query" binding:"required"`
	ProfileID           *uuid.UUID `json:"profile_id"`
	TopK                *int       `json:"top_k"`
	SimilarityThreshold *float64   `json:"similarity_threshold"`
	EmbeddingModel      string     `json:"embedding_model"`
}

// resolveScope fills defaults: the active profile when none is named, plus
// the configured model, top_k, and threshold.
func (h *QueryHandler) resolveScope(c *gin.Context, req *queryRequest) (*types.ChunkProfile, string, int, float64, error) {
	var profile *types.ChunkProfile
	var err error
	dbc := dbctx.New(c.Request.Context())
	if req.ProfileID != nil {
		profile, err = h.profiles.GetByID(dbc, *req.ProfileID)
		if err == nil && profile == nil {
			err = types.NewConfigError("chunk profile %s not found", *req.ProfileID)
		}
	} else {
		profile, err = h.profiles.GetActive(dbc)
	}
	if err != nil {
		return nil, "", 0, 0, err
	}

	model := req.EmbeddingModel
	if model == "" {
		model = h.defaults.EmbeddingModel
	}
	topK := h.defaults.TopK
	if req.TopK != nil {
		topK = *req.TopK
	}
	threshold := h.defaults.SimilarityThreshold
	if req.SimilarityThreshold != nil {
		threshold = *req.SimilarityThreshold
	}
	return profile, model, topK, threshold, nil
}

// POST /api/query
// An empty candidate list is a 200 with zero results, not an error.
func (h *QueryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	profile, model, topK, threshold, err := h.resolveScope(c, &req)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}

	candidates, err := h.retriever.Retrieve(c.Request.Context(), req.Query, model, profile.ID, topK, threshold)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"profile_id":      profile.ID,
		"embedding_model": model,
		"candidates":      candidates,
	})
}
