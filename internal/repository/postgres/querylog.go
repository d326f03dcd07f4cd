package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/docgate/internal/models"
)

type QueryLogStore struct {
	pool *pgxpool.Pool
}

func NewQueryLogStore(pool *pgxpool.Pool) *QueryLogStore {
	return &QueryLogStore{pool: pool}
}

const queryLogColumns = `id, tenant_id, user_id, message, answer, allowed_sources, retrieved, created_at`

// retrieved is a jsonb column: the hit list is read back whole or not at
// all, never queried into, so a relational layout would buy nothing.
func scanQueryLog(row pgx.Row) (*models.QueryLog, error) {
	var l models.QueryLog
	var sources []string
	var retrieved []byte
	err := row.Scan(
		&l.ID,
		&l.TenantID,
		&l.UserID,
		&l.Message,
		&l.Answer,
		&sources,
		&retrieved,
		&l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.AllowedSources = make([]models.SourceKey, 0, len(sources))
	for _, s := range sources {
		l.AllowedSources = append(l.AllowedSources, models.SourceKey(s))
	}
	l.Retrieved = make([]models.RetrievedHit, 0)
	if len(retrieved) > 0 {
		if err := json.Unmarshal(retrieved, &l.Retrieved); err != nil {
			return nil, fmt.Errorf("decode retrieved hits: %w", err)
		}
	}
	return &l, nil
}

// Insert appends one audit record. bigserial id and now() timestamp are
// both server-assigned; there is no UPDATE or DELETE on this table
// anywhere in the codebase.
func (s *QueryLogStore) Insert(ctx context.Context, log *models.QueryLog) (*models.QueryLog, error) {
	retrieved, err := json.Marshal(log.Retrieved)
	if err != nil {
		return nil, fmt.Errorf("encode retrieved hits: %w", err)
	}

	query := `
		INSERT INTO query_logs (tenant_id, user_id, message, answer, allowed_sources, retrieved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING ` + queryLogColumns

	inserted, err := scanQueryLog(s.pool.QueryRow(ctx, query,
		log.TenantID,
		log.UserID,
		log.Message,
		log.Answer,
		models.SourceKeyStrings(log.AllowedSources),
		retrieved,
	))
	if err != nil {
		return nil, fmt.Errorf("insert query log: %w", err)
	}
	return inserted, nil
}

func (s *QueryLogStore) GetByID(ctx context.Context, tenantID string, logID int64) (*models.QueryLog, error) {
	query := `
		SELECT ` + queryLogColumns + `
		FROM query_logs
		WHERE id = $1 AND tenant_id = $2`

	l, err := scanQueryLog(s.pool.QueryRow(ctx, query, logID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get query log: %w", err)
	}
	return l, nil
}

// ListByUser pages a user's own history newest-first.
//
// Cursor pagination: before=0 → first page (latest logs); before=N →
// "logs older than id N". The bigserial id is monotonically increasing,
// so ordering by id is ordering by time, minus the timestamp comparison
// cost.
func (s *QueryLogStore) ListByUser(ctx context.Context, tenantID string, userID uuid.UUID, before int64, limit int) ([]models.QueryLog, error) {
	var query string
	var args []any

	if before > 0 {
		query = `
			SELECT ` + queryLogColumns + `
			FROM query_logs
			WHERE tenant_id = $1 AND user_id = $2 AND id < $3
			ORDER BY id DESC
			LIMIT $4`
		args = []any{tenantID, userID, before, limit}
	} else {
		query = `
			SELECT ` + queryLogColumns + `
			FROM query_logs
			WHERE tenant_id = $1 AND user_id = $2
			ORDER BY id DESC
			LIMIT $3`
		args = []any{tenantID, userID, limit}
	}

	return s.queryLogs(ctx, query, args)
}

// ListByTenant is the admin view: the whole tenant's history, same cursor.
func (s *QueryLogStore) ListByTenant(ctx context.Context, tenantID string, before int64, limit int) ([]models.QueryLog, error) {
	var query string
	var args []any

	if before > 0 {
		query = `
			SELECT ` + queryLogColumns + `
			FROM query_logs
			WHERE tenant_id = $1 AND id < $2
			ORDER BY id DESC
			LIMIT $3`
		args = []any{tenantID, before, limit}
	} else {
		query = `
			SELECT ` + queryLogColumns + `
			FROM query_logs
			WHERE tenant_id = $1
			ORDER BY id DESC
			LIMIT $2`
		args = []any{tenantID, limit}
	}

	return s.queryLogs(ctx, query, args)
}

func (s *QueryLogStore) queryLogs(ctx context.Context, query string, args []any) ([]models.QueryLog, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query logs: %w", err)
	}
	defer rows.Close()

	logs := make([]models.QueryLog, 0)
	for rows.Next() {
		l, err := scanQueryLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan query log: %w", err)
		}
		logs = append(logs, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query logs: %w", err)
	}

	return logs, nil
}
