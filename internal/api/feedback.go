package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/docgate/internal/access"
	"github.com/lalith-99/docgate/internal/audit"
	"github.com/lalith-99/docgate/internal/middleware"
	"go.uber.org/zap"
)

type FeedbackHandler struct {
	svc    *access.Service
	audit  *audit.Service
	logger *zap.Logger
}

func NewFeedbackHandler(svc *access.Service, auditSvc *audit.Service, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{svc: svc, audit: auditSvc, logger: logger}
}

type feedbackRequest struct {
	LogID   int64   `json:"log_id" binding:"required"`
	Helpful *bool   `json:"helpful" binding:"required"`
	Comment *string `json:"comment"`
}

// Create handles POST /v1/feedback
//
// Helpful is *bool, not bool: "helpful": false must bind as a present
// false, not trip the required validator the way a zero value would.
func (h *FeedbackHandler) Create(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.svc.CurrentUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to resolve user")
		return
	}

	comment := ""
	if req.Comment != nil {
		comment = *req.Comment
	}

	f, err := h.audit.RecordFeedback(c.Request.Context(), user.TenantID, user.ID, req.LogID, *req.Helpful, comment)
	if err != nil {
		respondError(c, h.logger, err, "failed to record feedback")
		return
	}

	c.JSON(http.StatusCreated, f)
}

// ListLogs handles GET /v1/logs?before=123&limit=50
//
// Cursor pagination, same shape as everywhere else: before=0 → latest,
// limit defaults to 50 and caps at 100.
func (h *FeedbackHandler) ListLogs(c *gin.Context) {
	user, err := h.svc.CurrentUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to resolve user")
		return
	}

	var before int64
	if b := c.Query("before"); b != "" {
		before, err = strconv.ParseInt(b, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'before' parameter"})
			return
		}
	}

	limit := 50
	if l := c.Query("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return
		}
		if limit > 100 {
			limit = 100
		}
	}

	logs, err := h.audit.ListLogs(c.Request.Context(), user, before, limit)
	if err != nil {
		h.logger.Error("failed to list logs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list logs"})
		return
	}

	c.JSON(http.StatusOK, logs)
}
