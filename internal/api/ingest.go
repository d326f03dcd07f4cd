package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/docgate/internal/access"
	"github.com/lalith-99/docgate/internal/middleware"
	"github.com/lalith-99/docgate/internal/models"
	"github.com/lalith-99/docgate/internal/rag"
	"github.com/lalith-99/docgate/internal/repository"
	"go.uber.org/zap"
)

// IngestHandler is the write path for documents and chunks: one document
// with its pre-split chunks per request, admin-only, scoped to the
// admin's own tenant.
//
// The chunk/document source invariant is structural here: the handler
// stamps every chunk with the document's source key, so a mixed-source
// batch cannot be expressed, let alone stored.
type IngestHandler struct {
	svc      *access.Service
	docs     repository.DocumentRepository
	chunks   repository.ChunkRepository
	embedder rag.Embedder
	indexer  *rag.FaissSearcher
	logger   *zap.Logger
}

func NewIngestHandler(
	svc *access.Service,
	docs repository.DocumentRepository,
	chunks repository.ChunkRepository,
	embedder rag.Embedder,
	indexer *rag.FaissSearcher,
	logger *zap.Logger,
) *IngestHandler {
	return &IngestHandler{
		svc:      svc,
		docs:     docs,
		chunks:   chunks,
		embedder: embedder,
		indexer:  indexer,
		logger:   logger,
	}
}

type ingestChunk struct {
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text" binding:"required"`
}

type ingestRequest struct {
	SourceKey string        `json:"source_key" binding:"required"`
	Title     string        `json:"title" binding:"required"`
	RawText   string        `json:"raw_text" binding:"required"`
	SourceURL string        `json:"source_url"`
	Chunks    []ingestChunk `json:"chunks" binding:"required,min=1"`
}

type ingestResponse struct {
	Document *models.Document `json:"document"`
	ChunkIDs []uuid.UUID      `json:"chunk_ids"`
}

// Ingest handles POST /v1/ingest/documents
func (h *IngestHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sourceKey, err := models.ParseSourceKey(req.SourceKey)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admin, err := h.svc.RequireAdmin(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to authorize ingest")
		return
	}

	ctx := c.Request.Context()

	doc, err := h.docs.Insert(ctx, admin.TenantID, sourceKey, req.Title, req.RawText, req.SourceURL)
	if err != nil {
		h.logger.Error("failed to insert document", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed"})
		return
	}

	chunks := make([]models.Chunk, 0, len(req.Chunks))
	for _, ch := range req.Chunks {
		chunks = append(chunks, models.Chunk{ChunkIndex: ch.ChunkIndex, Text: ch.Text})
	}
	chunkIDs, err := h.chunks.InsertBatch(ctx, admin.TenantID, sourceKey, doc.ID, chunks)
	if err != nil {
		h.logger.Error("failed to insert chunks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed"})
		return
	}

	// Embed and index. Positional zip: chunkIDs came back in input order,
	// which is exactly what the sidecar's id↔vector mapping relies on.
	if h.embedder != nil && h.indexer != nil {
		vectors := make([][]float32, 0, len(req.Chunks))
		for _, ch := range req.Chunks {
			vec, err := h.embedder.Embed(ctx, ch.Text)
			if err != nil {
				h.logger.Error("failed to embed chunk", zap.Error(err), zap.Int("chunk_index", ch.ChunkIndex))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed"})
				return
			}
			vectors = append(vectors, vec)
		}

		ids := make([]string, 0, len(chunkIDs))
		for _, id := range chunkIDs {
			ids = append(ids, id.String())
		}
		if err := h.indexer.AddVectors(ctx, admin.TenantID, sourceKey, ids, vectors); err != nil {
			h.logger.Error("failed to index chunks", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed"})
			return
		}
	}

	h.logger.Info("document ingested",
		zap.String("tenant", admin.TenantID),
		zap.String("source", string(sourceKey)),
		zap.String("doc_id", doc.ID.String()),
		zap.Int("chunks", len(chunkIDs)),
	)

	c.JSON(http.StatusCreated, ingestResponse{Document: doc, ChunkIDs: chunkIDs})
}
