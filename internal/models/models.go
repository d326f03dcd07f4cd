package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an identity record within a tenant.
//
// Why TenantID on every entity?
//   - So every query can be scoped: "WHERE tenant_id = X".
//   - Prevents cross-tenant data leaks at the query level, not in handler
//     code that someone can forget to write.
//
// Why is TenantID a string and not a UUID?
//   - Tenants are provisioned out-of-band and referenced by slug
//     ("acme", "initech"). The slug is opaque to this service — it is
//     never parsed, only compared and filtered on.
//
// Role and AllowedSources are the ACL. They are mutated ONLY through the
// access service (admin guard) or the first-admin bootstrap — there is no
// other write path to these fields.
type User struct {
	ID             uuid.UUID   `json:"id"`
	TenantID       string      `json:"tenant_id"`
	Email          string      `json:"email"`
	Role           Role        `json:"role"`
	AllowedSources []SourceKey `json:"allowed_sources"`
	PasswordHash   string      `json:"-"`
	CreatedAt      time.Time   `json:"created_at"`
}

// EffectiveSources returns the sources this user may actually read.
// Admins see every source; everyone else sees exactly their grant.
func (u *User) EffectiveSources() []SourceKey {
	if u.Role == RoleAdmin {
		return AvailableSources()
	}
	if u.AllowedSources == nil {
		return []SourceKey{}
	}
	return u.AllowedSources
}

// CanReadSource reports whether this user may read the given source.
func (u *User) CanReadSource(key SourceKey) bool {
	for _, s := range u.EffectiveSources() {
		if s == key {
			return true
		}
	}
	return false
}

// Document is one ingested document. Immutable after ingestion: this
// service reads documents, the ingestion pipeline writes them.
type Document struct {
	ID        uuid.UUID `json:"id"`
	TenantID  string    `json:"tenant_id"`
	SourceKey SourceKey `json:"source_key"`
	Title     string    `json:"title"`
	RawText   string    `json:"raw_text"`
	SourceURL string    `json:"source_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Chunk is one text span of a document, the unit the vector index ranks.
//
// SourceKey is denormalized from the owning document so a chunk read never
// needs a join to decide "may this caller see it". Ingestion guarantees
// chunk.SourceKey == document.SourceKey; this service assumes it.
type Chunk struct {
	ID         uuid.UUID `json:"id"`
	TenantID   string    `json:"tenant_id"`
	SourceKey  SourceKey `json:"source_key"`
	DocID      uuid.UUID `json:"doc_id"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
}

// RetrievedHit is one ranked retrieval result inside a QueryLog.
type RetrievedHit struct {
	SourceKey  SourceKey `json:"source_key"`
	Score      float32   `json:"score"`
	DocID      uuid.UUID `json:"doc_id"`
	DocTitle   string    `json:"doc_title"`
	ChunkID    uuid.UUID `json:"chunk_id"`
	ChunkIndex int       `json:"chunk_index"`
}

// QueryLog is the immutable audit record of one question/answer round.
//
// Why int64 for ID (not UUID)?
//   - Logs are the highest-volume table and append-only. bigserial is
//     smaller, naturally ordered (higher ID = newer), and index-friendly —
//     which is exactly what cursor pagination over an audit trail wants.
//
// AllowedSources is a snapshot of the grant in effect at query time, NOT a
// live reference — an admin changing the grant later must not rewrite
// history.
type QueryLog struct {
	ID             int64          `json:"id"`
	TenantID       string         `json:"tenant_id"`
	UserID         uuid.UUID      `json:"user_id"`
	Message        string         `json:"message"`
	Answer         string         `json:"answer"`
	AllowedSources []SourceKey    `json:"allowed_sources"`
	Retrieved      []RetrievedHit `json:"retrieved"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Feedback is a helpfulness signal attached to a QueryLog. Append-only;
// the same user may leave feedback on the same log more than once.
type Feedback struct {
	ID        int64     `json:"id"`
	LogID     int64     `json:"log_id"`
	UserID    uuid.UUID `json:"user_id"`
	Helpful   bool      `json:"helpful"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
