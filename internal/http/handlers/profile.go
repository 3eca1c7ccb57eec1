package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/data/repos"
	"github.com/IGabriel/ai-knowledge-bench/internal/http/response"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/dbctx"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
)

type ProfileHandler struct {
	log      *logger.Logger
	profiles repos.ChunkProfileRepo
}

func NewProfileHandler(log *logger.Logger, profiles repos.ChunkProfileRepo) *ProfileHandler {
	return &ProfileHandler{
		log:      log.With("handler", "ProfileHandler"),
		profiles: profiles,
	}
}

type createProfileRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	ChunkSize    int    `json:"chunk_size" binding:"required"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

// POST /api/profiles
func (h *ProfileHandler) Create(c *gin.Context) {
	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	profile, err := h.profiles.Create(dbctx.New(c.Request.Context()), req.Name, req.Description, req.ChunkSize, req.ChunkOverlap)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"profile": profile})
}

// GET /api/profiles
func (h *ProfileHandler) List(c *gin.Context) {
	profiles, err := h.profiles.List(dbctx.New(c.Request.Context()))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profiles": profiles})
}

// GET /api/profiles/active
func (h *ProfileHandler) GetActive(c *gin.Context) {
	profile, err := h.profiles.GetActive(dbctx.New(c.Request.Context()))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}

// POST /api/profiles/:id/activate
// Atomic: the previously active profile deactivates in the same transaction.
func (h *ProfileHandler) Activate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	profile, err := h.profiles.Activate(dbctx.New(c.Request.Context()), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": profile})
}

func intQuery(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
