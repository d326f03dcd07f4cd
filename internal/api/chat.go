package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/docgate/internal/access"
	"github.com/lalith-99/docgate/internal/middleware"
	"github.com/lalith-99/docgate/internal/rag"
	"go.uber.org/zap"
)

type ChatHandler struct {
	svc      *access.Service
	pipeline *rag.Pipeline
	logger   *zap.Logger
}

func NewChatHandler(svc *access.Service, pipeline *rag.Pipeline, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, pipeline: pipeline, logger: logger}
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

// Chat handles POST /v1/chat
//
// The handler resolves the caller's LIVE record — not token claims — so
// the grant that scopes this retrieval is whatever an admin last set,
// down to cache-TTL staleness, not whatever was true when the token was
// minted.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.CurrentUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to resolve user")
		return
	}

	result, err := h.pipeline.Answer(c.Request.Context(), user, req.Message)
	if err != nil {
		h.logger.Error("chat pipeline failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer"})
		return
	}

	c.JSON(http.StatusOK, result)
}
