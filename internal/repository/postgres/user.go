package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/docgate/internal/models"
	"github.com/lalith-99/docgate/internal/repository"
)

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `id, tenant_id, email, role, allowed_sources, password_hash, created_at`

// scanUser reads one user row. allowed_sources is a text[] column; pgx
// scans it into []string, converted to the closed SourceKey type here —
// values in the store already passed the boundary validation, so this is
// a plain cast, not a re-parse.
func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var role string
	var sources []string
	err := row.Scan(
		&u.ID,
		&u.TenantID,
		&u.Email,
		&role,
		&sources,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.AllowedSources = make([]models.SourceKey, 0, len(sources))
	for _, s := range sources {
		u.AllowedSources = append(u.AllowedSources, models.SourceKey(s))
	}
	return &u, nil
}

// Create inserts a signup user: role=member, empty source grant.
// Role and sources are NOT parameters on purpose — the only paths that
// change them are the admin update methods and PromoteFirstAdmin.
func (s *UserStore) Create(ctx context.Context, tenantID, email, passwordHash string) (*models.User, error) {
	query := `
		INSERT INTO users (id, tenant_id, email, role, allowed_sources, password_hash, created_at)
		VALUES (uuid_generate_v4(), $1, $2, 'member', '{}', $3, now())
		RETURNING ` + userColumns

	u, err := scanUser(s.pool.QueryRow(ctx, query, tenantID, email, passwordHash))
	if err != nil {
		// 23505 = unique_violation. The only unique constraint an insert
		// can trip is the global email index.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, repository.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByID(ctx context.Context, tenantID string, userID uuid.UUID) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND tenant_id = $2`

	u, err := scanUser(s.pool.QueryRow(ctx, query, userID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByIDAnyTenant resolves a caller's own record from their token id.
// The ONLY untenanted user read: the caller's tenant is derived from the
// result, never trusted from the request.
func (s *UserStore) GetByIDAnyTenant(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetByEmail looks up a user by email (globally, not tenant-scoped).
// Used for login — you type your email, we find you.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) ListByTenant(ctx context.Context, tenantID string) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE tenant_id = $1
		ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func (s *UserStore) UpdateRole(ctx context.Context, tenantID string, userID uuid.UUID, role models.Role) (*models.User, error) {
	return s.Update(ctx, tenantID, userID, &role, nil)
}

func (s *UserStore) UpdateSources(ctx context.Context, tenantID string, userID uuid.UUID, sources []models.SourceKey) (*models.User, error) {
	if sources == nil {
		sources = []models.SourceKey{}
	}
	return s.Update(ctx, tenantID, userID, nil, sources)
}

// Update patches role and/or allowed_sources on a single user row.
//
// COALESCE keeps the stored value when the parameter is NULL, so "update
// role only" and "update sources only" are the same statement. Sources are
// replaced wholesale — read-modify-write at the caller if you want an
// incremental edit.
//
// The WHERE clause is tenant-scoped like every read: an admin can never
// reach a row outside their own tenant, even with a valid target id.
func (s *UserStore) Update(ctx context.Context, tenantID string, userID uuid.UUID, role *models.Role, sources []models.SourceKey) (*models.User, error) {
	query := `
		UPDATE users
		SET role = COALESCE($3, role),
		    allowed_sources = COALESCE($4, allowed_sources)
		WHERE id = $1 AND tenant_id = $2
		RETURNING ` + userColumns

	var roleParam *string
	if role != nil {
		v := string(*role)
		roleParam = &v
	}
	var sourcesParam []string
	if sources != nil {
		sourcesParam = models.SourceKeyStrings(sources)
	}

	u, err := scanUser(s.pool.QueryRow(ctx, query, userID, tenantID, roleParam, sourcesParam))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// PromoteFirstAdmin promotes the user to admin only if their tenant has no
// admin yet.
//
// The obvious single statement — UPDATE ... WHERE id = $1 AND NOT EXISTS
// (admin in tenant) — is NOT safe here, even though it is atomic. Under
// READ COMMITTED two sessions promoting DIFFERENT users both snapshot
// "no admin yet", and because each updates a different row, neither ever
// blocks on the other's row lock; both commit and the tenant ends up with
// two admins. Same MVCC trap as INSERT ... WHERE NOT EXISTS.
//
// So the precondition check and the write run in one transaction behind a
// transaction-scoped advisory lock keyed on the tenant: the loser of the
// race waits for the winner to commit, then sees its admin and returns
// false. A partial unique index would also close the race but would
// forbid admins promoting further admins later, which UpdateRole
// legitimately does.
func (s *UserStore) PromoteFirstAdmin(ctx context.Context, tenantID string, userID uuid.UUID) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin promote: %w", err)
	}
	defer tx.Rollback(ctx)

	// Held until commit or rollback. A hashtext collision between two
	// tenants costs extra serialization, never correctness.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, tenantID); err != nil {
		return false, fmt.Errorf("lock tenant for promote: %w", err)
	}

	var hasAdmin bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE tenant_id = $1 AND role = 'admin')`,
		tenantID,
	).Scan(&hasAdmin)
	if err != nil {
		return false, fmt.Errorf("check existing admin: %w", err)
	}
	if hasAdmin {
		return false, nil
	}

	tag, err := tx.Exec(ctx,
		`UPDATE users SET role = 'admin' WHERE id = $1 AND tenant_id = $2`,
		userID, tenantID,
	)
	if err != nil {
		return false, fmt.Errorf("promote first admin: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit promote: %w", err)
	}
	return true, nil
}
