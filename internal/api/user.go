package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/docgate/internal/access"
	"github.com/lalith-99/docgate/internal/middleware"
	"github.com/lalith-99/docgate/internal/models"
	"go.uber.org/zap"
)

// UserHandler exposes identity reads and the admin mutations. All the
// authorization logic lives in the access service — this layer only
// parses requests and maps outcomes to HTTP.
type UserHandler struct {
	svc    *access.Service
	logger *zap.Logger
}

func NewUserHandler(svc *access.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// meResponse adds the computed effective grant to the stored record —
// the chat UI keys the source panel off effective_sources, which for
// admins is every source regardless of the stored grant.
type meResponse struct {
	*models.User
	EffectiveSources []models.SourceKey `json:"effective_sources"`
}

// GetMe handles GET /v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.svc.CurrentUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to get user")
		return
	}

	c.JSON(http.StatusOK, meResponse{User: user, EffectiveSources: user.EffectiveSources()})
}

// List handles GET /v1/users
//
// Admins get the tenant roster; everyone else gets []. The empty array
// for non-admins is the contract (fail-closed to absence), so no error
// branch here distinguishes the two cases.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.ListTenantUsers(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to list users")
		return
	}

	c.JSON(http.StatusOK, users)
}

// updateUserRequest carries the admin patch. Both fields optional;
// omitted fields are untouched. allowed_sources, when present, REPLACES
// the grant — there is no merge.
type updateUserRequest struct {
	Role           *string  `json:"role"`
	AllowedSources []string `json:"allowed_sources"`
}

// Update handles PATCH /v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Untrusted strings → closed vocabularies, before anything touches
	// the store. A typo'd role or source is a 400 here, never a silent
	// no-op filter later.
	var role *models.Role
	if req.Role != nil {
		r, err := models.ParseRole(*req.Role)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		role = &r
	}
	var sources []models.SourceKey
	if req.AllowedSources != nil {
		sources, err = models.ParseSourceKeys(req.AllowedSources)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if role == nil && sources == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	updated, err := h.svc.UpdateUser(c.Request.Context(), middleware.GetUserID(c), targetID, role, sources)
	if err != nil {
		respondError(c, h.logger, err, "failed to update user")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// BecomeFirstAdmin handles POST /v1/users/become-first-admin
//
// 200 with the promoted record, or 409 if the tenant already has an
// admin — including the case where this caller lost the race by a
// millisecond.
func (h *UserHandler) BecomeFirstAdmin(c *gin.Context) {
	user, err := h.svc.BecomeFirstAdmin(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to bootstrap admin")
		return
	}

	c.JSON(http.StatusOK, user)
}

// Sources handles GET /v1/meta/sources — the closed source vocabulary,
// for the admin grant editor.
func (h *UserHandler) Sources(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.AvailableSources())
}

// Roles handles GET /v1/meta/roles
func (h *UserHandler) Roles(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.AvailableRoles())
}
