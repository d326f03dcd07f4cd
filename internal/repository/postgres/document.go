package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/docgate/internal/models"
)

type DocumentStore struct {
	pool *pgxpool.Pool
}

func NewDocumentStore(pool *pgxpool.Pool) *DocumentStore {
	return &DocumentStore{pool: pool}
}

const documentColumns = `id, tenant_id, source_key, title, raw_text, source_url, created_at`

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	var sourceKey string
	var sourceURL *string
	err := row.Scan(
		&d.ID,
		&d.TenantID,
		&sourceKey,
		&d.Title,
		&d.RawText,
		&sourceURL,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.SourceKey = models.SourceKey(sourceKey)
	if sourceURL != nil {
		d.SourceURL = *sourceURL
	}
	return &d, nil
}

func (s *DocumentStore) Insert(ctx context.Context, tenantID string, sourceKey models.SourceKey, title, rawText, sourceURL string) (*models.Document, error) {
	query := `
		INSERT INTO documents (id, tenant_id, source_key, title, raw_text, source_url, created_at)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5, now())
		RETURNING ` + documentColumns

	var urlParam *string
	if sourceURL != "" {
		urlParam = &sourceURL
	}

	d, err := scanDocument(s.pool.QueryRow(ctx, query, tenantID, string(sourceKey), title, rawText, urlParam))
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return d, nil
}

func (s *DocumentStore) GetByID(ctx context.Context, tenantID string, docID uuid.UUID) (*models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = $1 AND tenant_id = $2`

	d, err := scanDocument(s.pool.QueryRow(ctx, query, docID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return d, nil
}

// GetMany returns the documents matching both the ids AND the tenant.
// Missing or foreign-tenant ids just don't come back — the SQL filter is
// the whole contract, there is no per-id error.
func (s *DocumentStore) GetMany(ctx context.Context, tenantID string, docIDs []uuid.UUID) ([]models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE id = ANY($1) AND tenant_id = $2`

	rows, err := s.pool.Query(ctx, query, docIDs, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// ListBySource is backed by the (tenant_id, source_key) index.
func (s *DocumentStore) ListBySource(ctx context.Context, tenantID string, sourceKey models.SourceKey) ([]models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE tenant_id = $1 AND source_key = $2
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, tenantID, string(sourceKey))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}
