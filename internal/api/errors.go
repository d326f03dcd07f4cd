package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/docgate/internal/access"
	"go.uber.org/zap"
)

// respondError maps the access taxonomy to HTTP statuses in ONE place so
// every handler agrees:
//
//	Unauthenticated              → 401
//	Unauthorized                 → 403
//	IdentityNotFound / UserNotFound / LogNotFound → 404
//	AdminAlreadyExists           → 409
//	anything else                → 500 (logged; body stays generic)
//
// Business outcomes get their own message; unexpected errors never leak
// internals to the client.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	case errors.Is(err, access.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
	case errors.Is(err, access.ErrIdentityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "identity not found"})
	case errors.Is(err, access.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, access.ErrLogNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "query log not found"})
	case errors.Is(err, access.ErrAdminAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": "tenant already has an administrator"})
	default:
		logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
