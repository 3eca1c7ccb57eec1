package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/clients/openai"
	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	types "github.com/IGabriel/ai-knowledge-bench/internal/domain"
	"github.com/IGabriel/ai-knowledge-bench/internal/http/response"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
	"github.com/IGabriel/ai-knowledge-bench/internal/retrieval"
)

type ChatHandler struct {
	log       *logger.Logger
	retriever *retrieval.Retriever
	ai        openai.Client
	profiles  repos.ChunkProfileRepo
	defaults  RetrievalDefaults
}

func NewChatHandler(log *logger.Logger, retriever *retrieval.Retriever, ai openai.Client, profiles repos.ChunkProfileRepo, defaults RetrievalDefaults) *ChatHandler {
	return &ChatHandler{
		log:       log.With("handler", "ChatHandler"),
		retriever: retriever,
		ai:        ai,
		profiles:  profiles,
		defaults:  defaults,
	}
}

type chatRequest struct {
	Question  string     `json:"question" binding:"required"`
	ProfileID *uuid.UUID `json:"profile_id"`
}

// POST /api/chat
// Streams the grounded answer over SSE: "sources" first, then "delta"
// fragments, then "done" with the full answer.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	dbc := dbctx.New(c.Request.Context())
	var profile *types.ChunkProfile
	var err error
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

	candidates, err := h.retriever.Retrieve(c.Request.Context(), req.Question,
		h.defaults.EmbeddingModel, profile.ID, h.defaults.TopK, h.defaults.SimilarityThreshold)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.SSEvent("sources", candidates)
	c.Writer.Flush()

	answer, err := h.ai.StreamText(c.Request.Context(), retrieval.AnswerSystemPrompt,
		retrieval.BuildUserPrompt(candidates, req.Question), func(delta string) {
			c.SSEvent("delta", delta)
			c.Writer.Flush()
		})
	if err != nil {
		h.log.Warn("Chat generation failed", "error", err)
		c.SSEvent("error", gin.H{"message": err.Error()})
		c.Writer.Flush()
		return
	}

	c.SSEvent("done", gin.H{"answer": answer})
	c.Writer.Flush()
}
