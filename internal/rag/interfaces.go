// Package rag wraps the external collaborators of the answer pipeline —
// embedding, vector search, answer generation — behind narrow interfaces,
// and composes them. This package consumes ranked results and model
// output; it never computes similarity or generates text itself.
package rag

import (
	"context"

	"github.com/google/uuid"
	"github.com/lalith-99/docgate/internal/models"
)

// Embedder turns a query into a vector for the search index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchHit is one ranked result from the vector index: which chunk, how
// relevant, from which source's index it came.
type SearchHit struct {
	ChunkID   uuid.UUID        `json:"chunk_id"`
	Score     float32          `json:"score"`
	SourceKey models.SourceKey `json:"source_key"`
}

// Searcher queries the vector index. The sources parameter is the
// caller's grant: the index is partitioned per (tenant, source) and ONLY
// the listed partitions are searched — chunks outside the grant are never
// even candidates.
type Searcher interface {
	Search(ctx context.Context, tenantID string, sources []models.SourceKey, vector []float32, topK int) ([]SearchHit, error)
}

// ContextBlock is one chunk of grounding text handed to the answerer,
// tagged with its source so the model can cite it.
type ContextBlock struct {
	SourceKey models.SourceKey
	Text      string
}

// Answerer produces the answer text from the question and the retrieved
// context.
type Answerer interface {
	Answer(ctx context.Context, question string, blocks []ContextBlock) (string, error)
}
