package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lalith-99/docgate/internal/models"
)

// FaissSearcher talks to the FAISS sidecar over HTTP.
//
// The sidecar keeps one flat index per (tenant, source) pair on disk.
// That partitioning is the retrieval half of the access story: we only
// name the partitions the caller's grant allows, so an out-of-grant chunk
// can't rank, let alone leak. The pipeline still re-checks every returned
// chunk against the store (defense in depth) — the sidecar is a
// collaborator, not a trusted policy engine.
type FaissSearcher struct {
	baseURL string
	client  *http.Client
}

func NewFaissSearcher(baseURL string) *FaissSearcher {
	return &FaissSearcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type faissSearchRequest struct {
	TenantID string    `json:"tenant_id"`
	Sources  []string  `json:"sources"`
	Vector   []float32 `json:"vector"`
	TopK     int       `json:"top_k_per_source"`
}

type faissSearchResponse struct {
	Hits []SearchHit `json:"hits"`
}

func (s *FaissSearcher) Search(ctx context.Context, tenantID string, sources []models.SourceKey, vector []float32, topK int) ([]SearchHit, error) {
	body, err := json.Marshal(faissSearchRequest{
		TenantID: tenantID,
		Sources:  models.SourceKeyStrings(sources),
		Vector:   vector,
		TopK:     topK,
	})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a little of the body for the error message, not all of it.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned %d: %s", resp.StatusCode, snippet)
	}

	var out faissSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if out.Hits == nil {
		out.Hits = []SearchHit{}
	}
	return out.Hits, nil
}

// AddVectors pushes a batch of chunk embeddings into the sidecar's
// (tenant, source) index. Used by the ingest path; chunk ids and vectors
// are zipped by position.
func (s *FaissSearcher) AddVectors(ctx context.Context, tenantID string, sourceKey models.SourceKey, chunkIDs []string, vectors [][]float32) error {
	body, err := json.Marshal(map[string]any{
		"tenant_id": tenantID,
		"source":    string(sourceKey),
		"chunk_ids": chunkIDs,
		"vectors":   vectors,
	})
	if err != nil {
		return fmt.Errorf("encode add request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/add", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build add request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("add request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("add returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
