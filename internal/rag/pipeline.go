package rag

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lalith-99/docgate/internal/audit"
	"github.com/lalith-99/docgate/internal/models"
	"github.com/lalith-99/docgate/internal/repository"
	"go.uber.org/zap"
)

// NoSourcesAnswer is returned (and logged) when the caller has an empty
// source grant. The round is still recorded — "asked and had nothing to
// search" is audit-worthy.
const NoSourcesAnswer = "No sources available for this user."

const topK = 8

// RetrievedResult is one hit as returned to the client: the audit fields
// plus display extras (snippet, full chunk text, source URL).
type RetrievedResult struct {
	models.RetrievedHit
	Snippet   string `json:"snippet"`
	ChunkText string `json:"chunk_text"`
	SourceURL string `json:"source_url,omitempty"`
}

// ChatResult is the outcome of one answered question.
type ChatResult struct {
	Answer    string            `json:"answer"`
	Retrieved []RetrievedResult `json:"retrieved"`
	LogID     int64             `json:"log_id"`
}

// Pipeline composes the collaborators into the chat flow and applies the
// defense-in-depth filter: nothing reaches the answerer, the client, or
// the audit trail unless it survived BOTH the grant-scoped search and a
// tenant+source re-check against the store.
type Pipeline struct {
	embedder Embedder
	searcher Searcher
	answerer Answerer
	chunks   repository.ChunkRepository
	docs     repository.DocumentRepository
	audit    *audit.Service
	logger   *zap.Logger
}

func NewPipeline(
	embedder Embedder,
	searcher Searcher,
	answerer Answerer,
	chunks repository.ChunkRepository,
	docs repository.DocumentRepository,
	auditSvc *audit.Service,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		embedder: embedder,
		searcher: searcher,
		answerer: answerer,
		chunks:   chunks,
		docs:     docs,
		audit:    auditSvc,
		logger:   logger,
	}
}

// Answer runs one question for an authenticated user.
//
// The user record is the caller's LIVE record (resolved this request) —
// its EffectiveSources is the grant snapshot that scopes the search and
// gets written to the audit log.
func (p *Pipeline) Answer(ctx context.Context, user *models.User, message string) (*ChatResult, error) {
	allowed := user.EffectiveSources()

	if len(allowed) == 0 {
		log, err := p.audit.RecordQuery(ctx, user.TenantID, user.ID, message, NoSourcesAnswer, allowed, nil)
		if err != nil {
			return nil, err
		}
		return &ChatResult{Answer: NoSourcesAnswer, Retrieved: []RetrievedResult{}, LogID: log.ID}, nil
	}

	vector, err := p.embedder.Embed(ctx, message)
	if err != nil {
		return nil, err
	}

	hits, err := p.searcher.Search(ctx, user.TenantID, allowed, vector, topK)
	if err != nil {
		return nil, err
	}
	if len(hits) > topK {
		hits = hits[:topK]
	}

	// Re-fetch every hit through the tenant-scoped accessor. Anything the
	// filter drops was a hit the index should not have returned; it just
	// disappears from the context, the response, and the log.
	chunkIDs := make([]uuid.UUID, 0, len(hits))
	for _, h := range hits {
		chunkIDs = append(chunkIDs, h.ChunkID)
	}
	chunks, err := p.chunks.GetMany(ctx, user.TenantID, chunkIDs)
	if err != nil {
		return nil, err
	}
	chunkByID := make(map[uuid.UUID]models.Chunk, len(chunks))
	for _, c := range chunks {
		chunkByID[c.ID] = c
	}

	// Preserve index ranking order, re-check tenant and source per chunk.
	allowedSet := make(map[models.SourceKey]bool, len(allowed))
	for _, s := range allowed {
		allowedSet[s] = true
	}
	ordered := make([]models.Chunk, 0, len(hits))
	for _, h := range hits {
		c, ok := chunkByID[h.ChunkID]
		if !ok || c.TenantID != user.TenantID || !allowedSet[c.SourceKey] {
			continue
		}
		ordered = append(ordered, c)
	}

	blocks := make([]ContextBlock, 0, len(ordered))
	for _, c := range ordered {
		blocks = append(blocks, ContextBlock{SourceKey: c.SourceKey, Text: c.Text})
	}

	answer, err := p.answerer.Answer(ctx, message, blocks)
	if err != nil {
		return nil, err
	}

	docIDs := make([]uuid.UUID, 0, len(ordered))
	seenDoc := make(map[uuid.UUID]bool, len(ordered))
	for _, c := range ordered {
		if !seenDoc[c.DocID] {
			seenDoc[c.DocID] = true
			docIDs = append(docIDs, c.DocID)
		}
	}
	docs, err := p.docs.GetMany(ctx, user.TenantID, docIDs)
	if err != nil {
		return nil, err
	}
	docByID := make(map[uuid.UUID]models.Document, len(docs))
	for _, d := range docs {
		docByID[d.ID] = d
	}

	results := make([]RetrievedResult, 0, len(hits))
	forLog := make([]models.RetrievedHit, 0, len(hits))
	for _, h := range hits {
		c, ok := chunkByID[h.ChunkID]
		if !ok || c.TenantID != user.TenantID || !allowedSet[c.SourceKey] {
			continue
		}
		d, ok := docByID[c.DocID]
		if !ok {
			continue
		}
		hit := models.RetrievedHit{
			SourceKey:  h.SourceKey,
			Score:      h.Score,
			DocID:      c.DocID,
			DocTitle:   d.Title,
			ChunkID:    c.ID,
			ChunkIndex: c.ChunkIndex,
		}
		forLog = append(forLog, hit)
		results = append(results, RetrievedResult{
			RetrievedHit: hit,
			Snippet:      makeSnippet(c.Text, 220),
			ChunkText:    c.Text,
			SourceURL:    d.SourceURL,
		})
	}

	log, err := p.audit.RecordQuery(ctx, user.TenantID, user.ID, message, answer, allowed, forLog)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("chat answered",
		zap.String("tenant", user.TenantID),
		zap.String("user", user.ID.String()),
		zap.Int("hits", len(forLog)),
		zap.Int64("log_id", log.ID),
	)

	return &ChatResult{Answer: answer, Retrieved: results, LogID: log.ID}, nil
}

// makeSnippet collapses whitespace and truncates for list views. maxLen
// is in bytes, but the cut backs up to a rune boundary so a multibyte
// character is never split into an invalid sequence.
func makeSnippet(text string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if len(cleaned) <= maxLen {
		return cleaned
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
		cut--
	}
	return strings.TrimRight(cleaned[:cut], " ") + "..."
}
