package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lalith-99/docgate/internal/models"
)

// ErrDuplicateEmail is returned by UserRepository.Create when the email is
// already registered. Signup does a friendly pre-check, but two signups can
// race past it — the unique index is the real guard, and this sentinel is
// how its violation surfaces as a conflict instead of a 500.
var ErrDuplicateEmail = errors.New("email already registered")

// Why context.Context as the first parameter on every method?
//
//   - It's idiomatic Go for anything that does I/O (DB, Redis, HTTP).
//   - It carries deadlines: if the HTTP request is cancelled, the DB query
//     gets cancelled too. No wasted work.
//   - Rule of thumb: if a function touches the network, it takes ctx.

// Why tenantID appears in almost every method signature?
//
//   - Tenant isolation lives HERE, at the data-access boundary, not in
//     handlers. Every read filters by tenant, so every caller — including
//     future ones — inherits isolation for free. There is no unchecked
//     accessor to bypass.
//   - A tenant-mismatched id returns nil/absent, NOT an error. "Wrong
//     tenant" and "does not exist" are deliberately indistinguishable, so
//     a caller can't probe whether an id exists in someone else's tenant.

// UserRepository is the identity & role store.
type UserRepository interface {
	// Create inserts a new user. Signup path: role=member, no sources.
	// Returns ErrDuplicateEmail if the email is already taken (globally —
	// login resolves by email alone).
	Create(ctx context.Context, tenantID, email, passwordHash string) (*models.User, error)

	// GetByID returns a user scoped to the tenant. Returns nil, nil if not
	// found (or in another tenant — same thing, by contract).
	GetByID(ctx context.Context, tenantID string, userID uuid.UUID) (*models.User, error)

	// GetByIDAnyTenant resolves an authenticated caller's own record from
	// their token id. The caller's tenant comes FROM this record, so it
	// can't be tenant-scoped. Never exposed to request parameters.
	GetByIDAnyTenant(ctx context.Context, userID uuid.UUID) (*models.User, error)

	// GetByEmail looks up a user by email (globally). Used for login.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// ListByTenant returns every user in a tenant, oldest first.
	// Returns empty slice (not nil) so JSON serializes to [] not null.
	ListByTenant(ctx context.Context, tenantID string) ([]models.User, error)

	// UpdateRole / UpdateSources / Update patch a single user record.
	// Update applies only non-nil fields; sources are replaced wholesale,
	// never merged. All three are single-record writes — last write wins
	// under concurrent admin edits, no cross-record transaction needed.
	UpdateRole(ctx context.Context, tenantID string, userID uuid.UUID, role models.Role) (*models.User, error)
	UpdateSources(ctx context.Context, tenantID string, userID uuid.UUID, sources []models.SourceKey) (*models.User, error)
	Update(ctx context.Context, tenantID string, userID uuid.UUID, role *models.Role, sources []models.SourceKey) (*models.User, error)

	// PromoteFirstAdmin sets the user's role to admin IF AND ONLY IF the
	// tenant has no admin yet. The precondition check and the write are
	// one atomic operation — two racing callers cannot both win.
	// Returns false (and no change) when an admin already exists.
	PromoteFirstAdmin(ctx context.Context, tenantID string, userID uuid.UUID) (bool, error)
}

// DocumentRepository reads ingested documents, always tenant-filtered.
type DocumentRepository interface {
	// Insert is the ingestion write path. Documents are immutable after this.
	Insert(ctx context.Context, tenantID string, sourceKey models.SourceKey, title, rawText, sourceURL string) (*models.Document, error)

	// GetByID returns nil, nil on miss or tenant mismatch.
	GetByID(ctx context.Context, tenantID string, docID uuid.UUID) (*models.Document, error)

	// GetMany silently drops missing or tenant-mismatched ids. Result
	// order need not match input order.
	GetMany(ctx context.Context, tenantID string, docIDs []uuid.UUID) ([]models.Document, error)

	// ListBySource is the index-backed scan behind source browsing.
	ListBySource(ctx context.Context, tenantID string, sourceKey models.SourceKey) ([]models.Document, error)
}

// ChunkRepository reads document chunks, always tenant-filtered.
type ChunkRepository interface {
	// InsertBatch writes a document's chunks and returns their ids in
	// input order — the ingestion pipeline maps them into the vector index.
	InsertBatch(ctx context.Context, tenantID string, sourceKey models.SourceKey, docID uuid.UUID, chunks []models.Chunk) ([]uuid.UUID, error)

	// GetMany: same drop-on-mismatch contract as documents.
	GetMany(ctx context.Context, tenantID string, chunkIDs []uuid.UUID) ([]models.Chunk, error)

	// ListByDocument returns a document's chunks in chunk-index order.
	ListByDocument(ctx context.Context, tenantID string, docID uuid.UUID) ([]models.Chunk, error)
}

// QueryLogRepository is the append-only audit trail.
type QueryLogRepository interface {
	// Insert appends one question/answer record with a server-assigned
	// timestamp. Logs are never updated or deleted.
	Insert(ctx context.Context, log *models.QueryLog) (*models.QueryLog, error)

	// GetByID is tenant-scoped like every other read.
	GetByID(ctx context.Context, tenantID string, logID int64) (*models.QueryLog, error)

	// ListByUser / ListByTenant page newest-first with a cursor:
	// before=0 means "from the latest".
	ListByUser(ctx context.Context, tenantID string, userID uuid.UUID, before int64, limit int) ([]models.QueryLog, error)
	ListByTenant(ctx context.Context, tenantID string, before int64, limit int) ([]models.QueryLog, error)
}

// FeedbackRepository appends feedback records. Authorization (owner or
// admin) happens in the audit service BEFORE this is called.
type FeedbackRepository interface {
	Insert(ctx context.Context, logID int64, userID uuid.UUID, helpful bool, comment string) (*models.Feedback, error)

	// ListByLog returns feedback for one log, oldest first.
	ListByLog(ctx context.Context, logID int64) ([]models.Feedback, error)
}
