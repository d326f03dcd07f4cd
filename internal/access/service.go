// Package access is the identity, role, and permission core.
//
// Every privilege-changing operation in the system routes through
// RequireAdmin — it is the single choke point for escalation. There is no
// other code path that writes a user's role or source grant, except the
// one-time first-admin bootstrap below (which can only promote the caller
// themself, and only into an adminless tenant).
package access

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/docgate/internal/models"
	"github.com/lalith-99/docgate/internal/repository"
	"go.uber.org/zap"
)

type Service struct {
	users  repository.UserRepository
	cache  *UserCache // optional; nil disables caching
	logger *zap.Logger
}

func NewService(users repository.UserRepository, cache *UserCache, logger *zap.Logger) *Service {
	return &Service{users: users, cache: cache, logger: logger}
}

// CurrentUser resolves an authenticated caller to their live User record.
//
// callerID comes from the verified token; uuid.Nil means the middleware
// never ran or the token carried nothing — unauthenticated either way.
// A token that resolves to no record is ErrIdentityNotFound, the
// data-integrity anomaly, distinct from "you're not logged in".
func (s *Service) CurrentUser(ctx context.Context, callerID uuid.UUID) (*models.User, error) {
	if callerID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	if s.cache != nil {
		if u := s.cache.Get(ctx, callerID); u != nil {
			return u, nil
		}
	}

	u, err := s.users.GetByIDAnyTenant(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrIdentityNotFound
	}

	if s.cache != nil {
		s.cache.Set(ctx, u)
	}
	return u, nil
}

// RequireAdmin is the admin authorization guard:
//
//  1. resolve the caller; absent identity → ErrUnauthenticated
//  2. load their record; absent record → ErrIdentityNotFound
//  3. role != admin → ErrUnauthorized
//
// On success it returns the caller's record so the calling operation can
// derive the tenant to scope its own work — callers never pass a tenant
// in from the outside.
func (s *Service) RequireAdmin(ctx context.Context, callerID uuid.UUID) (*models.User, error) {
	caller, err := s.CurrentUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.Role != models.RoleAdmin {
		return nil, ErrUnauthorized
	}
	return caller, nil
}

// ListTenantUsers returns every user in the caller's tenant — for admins.
//
// For everyone else it returns an EMPTY slice, not an error. Fail-closed
// to absence: a non-admin probing this endpoint learns nothing, not even
// that there was something to be denied. This is a documented contract
// (tests assert on it), not an accident.
func (s *Service) ListTenantUsers(ctx context.Context, callerID uuid.UUID) ([]models.User, error) {
	caller, err := s.CurrentUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.Role != models.RoleAdmin {
		return []models.User{}, nil
	}
	return s.users.ListByTenant(ctx, caller.TenantID)
}

// UpdateUser patches a target user's role and/or source grant.
//
// Guard first, then scope: the target lookup uses the ADMIN's tenant, so
// a valid user id from another tenant behaves exactly like a nonexistent
// one (ErrUserNotFound). Sources are replaced wholesale — read-modify-
// write at the caller for incremental edits.
func (s *Service) UpdateUser(ctx context.Context, callerID, targetID uuid.UUID, role *models.Role, sources []models.SourceKey) (*models.User, error) {
	caller, err := s.RequireAdmin(ctx, callerID)
	if err != nil {
		return nil, err
	}

	updated, err := s.users.Update(ctx, caller.TenantID, targetID, role, sources)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrUserNotFound
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, targetID)
	}
	s.logger.Info("user permissions updated",
		zap.String("tenant", caller.TenantID),
		zap.String("admin", callerID.String()),
		zap.String("target", targetID.String()),
	)
	return updated, nil
}

// UpdateUserRole and UpdateUserSources are the single-field conveniences
// over UpdateUser; same guard, same semantics.
func (s *Service) UpdateUserRole(ctx context.Context, callerID, targetID uuid.UUID, role models.Role) (*models.User, error) {
	return s.UpdateUser(ctx, callerID, targetID, &role, nil)
}

func (s *Service) UpdateUserSources(ctx context.Context, callerID, targetID uuid.UUID, sources []models.SourceKey) (*models.User, error) {
	if sources == nil {
		sources = []models.SourceKey{}
	}
	return s.UpdateUser(ctx, callerID, targetID, nil, sources)
}

// BecomeFirstAdmin promotes the caller to admin if their tenant has none.
//
// The no-admin check and the promotion are serialized per tenant by the
// store (see UserStore.PromoteFirstAdmin), so two users racing in the
// same adminless tenant produce exactly one admin. The loser gets
// ErrAdminAlreadyExists and no state change — an expected outcome, not a
// failure to alarm on.
func (s *Service) BecomeFirstAdmin(ctx context.Context, callerID uuid.UUID) (*models.User, error) {
	caller, err := s.CurrentUser(ctx, callerID)
	if err != nil {
		return nil, err
	}

	promoted, err := s.users.PromoteFirstAdmin(ctx, caller.TenantID, caller.ID)
	if err != nil {
		return nil, err
	}
	if !promoted {
		return nil, ErrAdminAlreadyExists
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, caller.ID)
	}
	s.logger.Info("first admin bootstrapped",
		zap.String("tenant", caller.TenantID),
		zap.String("user", caller.ID.String()),
	)

	// Re-read so the returned record reflects the promotion.
	return s.CurrentUser(ctx, callerID)
}

// AvailableSources and AvailableRoles expose the closed vocabularies to
// the admin UI.
func (s *Service) AvailableSources() []models.SourceKey {
	return models.AvailableSources()
}

func (s *Service) AvailableRoles() []models.Role {
	return models.AvailableRoles()
}
