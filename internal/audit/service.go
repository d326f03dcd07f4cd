// Package audit owns the append-only trail: one QueryLog per
// question/answer round, plus user feedback attached to logs. Nothing in
// this package mutates or deletes — the only writes are appends.
package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/docgate/internal/access"
	"github.com/lalith-99/docgate/internal/models"
	"github.com/lalith-99/docgate/internal/repository"
	"go.uber.org/zap"
)

type Service struct {
	logs     repository.QueryLogRepository
	feedback repository.FeedbackRepository
	users    repository.UserRepository
	logger   *zap.Logger
}

func NewService(
	logs repository.QueryLogRepository,
	feedback repository.FeedbackRepository,
	users repository.UserRepository,
	logger *zap.Logger,
) *Service {
	return &Service{logs: logs, feedback: feedback, users: users, logger: logger}
}

// RecordQuery appends one question/answer/retrieval record.
//
// Pure append — no authorization here beyond what the chat pipeline
// already enforced ("caller is an authenticated tenant member"). The
// allowedSources parameter is the grant in effect AT QUERY TIME; it is
// stored as a snapshot precisely so later grant changes don't falsify
// the audit trail.
func (s *Service) RecordQuery(
	ctx context.Context,
	tenantID string,
	userID uuid.UUID,
	message, answer string,
	allowedSources []models.SourceKey,
	retrieved []models.RetrievedHit,
) (*models.QueryLog, error) {
	if retrieved == nil {
		retrieved = []models.RetrievedHit{}
	}
	if allowedSources == nil {
		allowedSources = []models.SourceKey{}
	}
	return s.logs.Insert(ctx, &models.QueryLog{
		TenantID:       tenantID,
		UserID:         userID,
		Message:        message,
		Answer:         answer,
		AllowedSources: allowedSources,
		Retrieved:      retrieved,
	})
}

// RecordFeedback appends a feedback record after the ownership check:
//
//  1. load the log (scoped to the caller's tenant) — absent → ErrLogNotFound
//  2. load the caller — absent → ErrUserNotFound
//  3. permit if the caller is an admin OR authored the log; otherwise
//     ErrUnauthorized and nothing is written
//
// Admin override is tenant-local by construction: the log lookup in step 1
// is scoped to the caller's own tenant, so a foreign-tenant log is
// indistinguishable from a missing one even for an admin.
func (s *Service) RecordFeedback(ctx context.Context, tenantID string, userID uuid.UUID, logID int64, helpful bool, comment string) (*models.Feedback, error) {
	log, err := s.logs.GetByID(ctx, tenantID, logID)
	if err != nil {
		return nil, err
	}
	if log == nil {
		return nil, access.ErrLogNotFound
	}

	user, err := s.users.GetByID(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, access.ErrUserNotFound
	}

	isAdmin := user.Role == models.RoleAdmin
	isOwner := log.UserID == userID
	if !isAdmin && !isOwner {
		return nil, access.ErrUnauthorized
	}

	f, err := s.feedback.Insert(ctx, logID, userID, helpful, comment)
	if err != nil {
		return nil, err
	}
	s.logger.Info("feedback recorded",
		zap.Int64("log_id", logID),
		zap.String("user", userID.String()),
		zap.Bool("helpful", helpful),
	)
	return f, nil
}

// ListLogs returns query history newest-first with cursor pagination.
// Members see their own logs; admins see the whole tenant. Cross-tenant
// history is unreachable from here — both store queries filter by the
// caller's tenant.
func (s *Service) ListLogs(ctx context.Context, caller *models.User, before int64, limit int) ([]models.QueryLog, error) {
	if caller.Role == models.RoleAdmin {
		return s.logs.ListByTenant(ctx, caller.TenantID, before, limit)
	}
	return s.logs.ListByUser(ctx, caller.TenantID, caller.ID, before, limit)
}
