package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/IGabriel/ai-knowledge-bench/internal/http/response"
	"github.com/IGabriel/ai-knowledge-bench/internal/platform/logger"
	"github.com/IGabriel/ai-knowledge-bench/internal/services"
)

// maxUploadBytes caps in-memory multipart reads.
const maxUploadBytes = 64 << 20

type DocumentHandler struct {
	log       *logger.Logger
	documents services.DocumentService
}

func NewDocumentHandler(log *logger.Logger, documents services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		log:       log.With("handler", "DocumentHandler"),
		documents: documents,
	}
}

// POST /api/documents
// Multipart upload; identical bytes dedupe onto the existing document.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "missing_file", fmt.Errorf("multipart field 'file' required: %w", err))
		return
	}
	if file.Size > maxUploadBytes {
		response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", fmt.Errorf("upload exceeds %d bytes", maxUploadBytes))
		return
	}
	f, err := file.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	doc, created, err := h.documents.Upload(c.Request.Context(), file.Filename, data)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	payload := gin.H{"document": doc, "deduplicated": !created}
	if created {
		response.RespondCreated(c, payload)
		return
	}
	response.RespondOK(c, payload)
}

// GET /api/documents
func (h *DocumentHandler) List(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)
	docs, err := h.documents.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"documents": docs})
}

// GET /api/documents/:id
func (h *DocumentHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	doc, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	if doc == nil {
		response.RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("document %s not found", id))
		return
	}
	response.RespondOK(c, gin.H{"document": doc})
}

type reindexRequest struct {
	ProfileID uuid.UUID `json:"profile_id" binding:"required"`
}

// POST /api/documents/:id/reindex
// Queues a new chunk generation under the target profile; prior generations
// stay queryable.
func (h *DocumentHandler) Reindex(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_id", err)
		return
	}
	var req reindexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	job, err := h.documents.Reindex(c.Request.Context(), id, req.ProfileID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job": job})
}
