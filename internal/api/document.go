package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/docgate/internal/access"
	"github.com/lalith-99/docgate/internal/middleware"
	"github.com/lalith-99/docgate/internal/models"
	"github.com/lalith-99/docgate/internal/repository"
	"go.uber.org/zap"
)

// DocumentHandler exposes tenant- and source-scoped document reads.
//
// Two distinct rejections, on purpose:
//   - wrong tenant → 404, same as "does not exist" (the repository
//     already collapsed the two; no existence probing across tenants)
//   - right tenant, source outside the caller's grant → 403 (inside your
//     own tenant, "there is a document you can't read" is not a secret —
//     the source panel shows locked sources anyway)
type DocumentHandler struct {
	svc    *access.Service
	docs   repository.DocumentRepository
	chunks repository.ChunkRepository
	logger *zap.Logger
}

func NewDocumentHandler(svc *access.Service, docs repository.DocumentRepository, chunks repository.ChunkRepository, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{svc: svc, docs: docs, chunks: chunks, logger: logger}
}

// GetByID handles GET /v1/documents/:id
func (h *DocumentHandler) GetByID(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	user, err := h.svc.CurrentUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to resolve user")
		return
	}

	doc, err := h.docs.GetByID(c.Request.Context(), user.TenantID, docID)
	if err != nil {
		h.logger.Error("failed to get document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get document"})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	if !user.CanReadSource(doc.SourceKey) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Chunks handles GET /v1/documents/:id/chunks — the document's chunks in
// reading order, behind the same tenant + source gate as the document.
func (h *DocumentHandler) Chunks(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	user, err := h.svc.CurrentUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to resolve user")
		return
	}

	doc, err := h.docs.GetByID(c.Request.Context(), user.TenantID, docID)
	if err != nil {
		h.logger.Error("failed to get document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get document"})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}
	if !user.CanReadSource(doc.SourceKey) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	chunks, err := h.chunks.ListByDocument(c.Request.Context(), user.TenantID, docID)
	if err != nil {
		h.logger.Error("failed to list chunks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list chunks"})
		return
	}

	c.JSON(http.StatusOK, chunks)
}

// ListBySource handles GET /v1/sources/:key/documents
func (h *DocumentHandler) ListBySource(c *gin.Context) {
	sourceKey, err := models.ParseSourceKey(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.CurrentUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to resolve user")
		return
	}
	if !user.CanReadSource(sourceKey) {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return
	}

	docs, err := h.docs.ListBySource(c.Request.Context(), user.TenantID, sourceKey)
	if err != nil {
		h.logger.Error("failed to list documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
		return
	}

	c.JSON(http.StatusOK, docs)
}

// lookupRequest is a batch-get by ids; used by tooling and the retrieval
// collaborator. Missing, foreign-tenant, and out-of-grant ids are simply
// absent from the result — batch reads never explain a hole.
type lookupRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required"`
}

// Lookup handles POST /v1/documents/lookup
func (h *DocumentHandler) Lookup(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.CurrentUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to resolve user")
		return
	}

	docs, err := h.docs.GetMany(c.Request.Context(), user.TenantID, req.IDs)
	if err != nil {
		h.logger.Error("failed to get documents", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get documents"})
		return
	}

	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if user.CanReadSource(d.SourceKey) {
			out = append(out, d)
		}
	}
	c.JSON(http.StatusOK, out)
}

// LookupChunks handles POST /v1/chunks/lookup — same contract as
// document lookup.
func (h *DocumentHandler) LookupChunks(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.CurrentUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to resolve user")
		return
	}

	chunks, err := h.chunks.GetMany(c.Request.Context(), user.TenantID, req.IDs)
	if err != nil {
		h.logger.Error("failed to get chunks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get chunks"})
		return
	}

	out := make([]models.Chunk, 0, len(chunks))
	for _, ch := range chunks {
		if user.CanReadSource(ch.SourceKey) {
			out = append(out, ch)
		}
	}
	c.JSON(http.StatusOK, out)
}
