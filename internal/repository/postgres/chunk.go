package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/docgate/internal/models"
)

type ChunkStore struct {
	pool *pgxpool.Pool
}

func NewChunkStore(pool *pgxpool.Pool) *ChunkStore {
	return &ChunkStore{pool: pool}
}

const chunkColumns = `id, tenant_id, source_key, doc_id, chunk_index, text`

func scanChunk(row pgx.Row) (*models.Chunk, error) {
	var c models.Chunk
	var sourceKey string
	err := row.Scan(
		&c.ID,
		&c.TenantID,
		&sourceKey,
		&c.DocID,
		&c.ChunkIndex,
		&c.Text,
	)
	if err != nil {
		return nil, err
	}
	c.SourceKey = models.SourceKey(sourceKey)
	return &c, nil
}

// InsertBatch writes one document's chunks inside a transaction and
// returns the generated ids IN INPUT ORDER — the ingestion pipeline zips
// them with the embedding vectors it pushes into the FAISS index, so order
// is load-bearing here.
//
// source_key is taken from the parameter, not from each chunk, so a batch
// can never mix sources: the chunk/document source invariant is enforced
// by construction.
func (s *ChunkStore) InsertBatch(ctx context.Context, tenantID string, sourceKey models.SourceKey, docID uuid.UUID, chunks []models.Chunk) ([]uuid.UUID, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin insert chunks: %w", err)
	}
	// Rollback after Commit is a no-op, so the defer is safe on both paths.
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO chunks (id, tenant_id, source_key, doc_id, chunk_index, text)
		VALUES (uuid_generate_v4(), $1, $2, $3, $4, $5)
		RETURNING id`

	ids := make([]uuid.UUID, 0, len(chunks))
	for _, c := range chunks {
		var id uuid.UUID
		err := tx.QueryRow(ctx, query, tenantID, string(sourceKey), docID, c.ChunkIndex, c.Text).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert chunk %d: %w", c.ChunkIndex, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit insert chunks: %w", err)
	}
	return ids, nil
}

// GetMany: same silent-drop contract as documents. The retrieval pipeline
// feeds this the ids the vector index returned; anything the tenant filter
// removes simply never reaches the answer context.
func (s *ChunkStore) GetMany(ctx context.Context, tenantID string, chunkIDs []uuid.UUID) ([]models.Chunk, error) {
	query := `
		SELECT ` + chunkColumns + `
		FROM chunks
		WHERE id = ANY($1) AND tenant_id = $2`

	rows, err := s.pool.Query(ctx, query, chunkIDs, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]models.Chunk, 0)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	return chunks, nil
}

func (s *ChunkStore) ListByDocument(ctx context.Context, tenantID string, docID uuid.UUID) ([]models.Chunk, error) {
	query := `
		SELECT ` + chunkColumns + `
		FROM chunks
		WHERE doc_id = $1 AND tenant_id = $2
		ORDER BY chunk_index ASC`

	rows, err := s.pool.Query(ctx, query, docID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	chunks := make([]models.Chunk, 0)
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	return chunks, nil
}
