package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/docgate/internal/auth"
)

// Context keys for storing claims in gin.Context.
//
// Constants instead of inline strings: a typo'd c.Get("usr_id") compiles
// fine and silently returns nil; a typo'd constant doesn't compile.
const (
	ContextKeyUserID   = "user_id"
	ContextKeyTenantID = "tenant_id"
	ContextKeyEmail    = "email"
)

// AuthMiddleware returns a Gin middleware that validates JWT tokens.
//
// It runs BEFORE every protected handler. Invalid or missing token →
// c.Abort() with 401 and the handler never runs. Valid token → claims go
// into the request context and the chain continues.
//
// Note what this middleware does NOT do: it never touches the database and
// never decides privileges. It answers "who is calling", nothing more.
// Role checks happen in the access service against the live User record.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Expected format: "Bearer eyJhbGciOi..."
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected: Bearer <token>",
			})
			return
		}
		tokenString := parts[1]

		claims, err := auth.ParseToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyTenantID, claims.TenantID)
		c.Set(ContextKeyEmail, claims.Email)

		c.Next()
	}
}

// ---------------------------------------------------------------
// Helpers for handlers to extract claims from context.
//
// c.Get() returns (any, bool); these do the type assertion once, in one
// place. On a missing key they return the zero value, which fails any
// downstream DB lookup gracefully.
// ---------------------------------------------------------------

func GetUserID(c *gin.Context) uuid.UUID {
	val, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

func GetTenantID(c *gin.Context) string {
	val, exists := c.Get(ContextKeyTenantID)
	if !exists {
		return ""
	}
	tenant, ok := val.(string)
	if !ok {
		return ""
	}
	return tenant
}

func GetEmail(c *gin.Context) string {
	val, exists := c.Get(ContextKeyEmail)
	if !exists {
		return ""
	}
	email, ok := val.(string)
	if !ok {
		return ""
	}
	return email
}
