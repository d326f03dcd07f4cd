package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/docgate/internal/models"
)

type FeedbackStore struct {
	pool *pgxpool.Pool
}

func NewFeedbackStore(pool *pgxpool.Pool) *FeedbackStore {
	return &FeedbackStore{pool: pool}
}

const feedbackColumns = `id, log_id, user_id, helpful, comment, created_at`

func scanFeedback(row pgx.Row) (*models.Feedback, error) {
	var f models.Feedback
	var comment *string
	err := row.Scan(
		&f.ID,
		&f.LogID,
		&f.UserID,
		&f.Helpful,
		&comment,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if comment != nil {
		f.Comment = *comment
	}
	return &f, nil
}

// Insert appends a feedback record. No uniqueness on (log_id, user_id):
// repeated feedback accumulates, matching the append-only audit model.
func (s *FeedbackStore) Insert(ctx context.Context, logID int64, userID uuid.UUID, helpful bool, comment string) (*models.Feedback, error) {
	query := `
		INSERT INTO feedback (log_id, user_id, helpful, comment, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING ` + feedbackColumns

	var commentParam *string
	if comment != "" {
		commentParam = &comment
	}

	f, err := scanFeedback(s.pool.QueryRow(ctx, query, logID, userID, helpful, commentParam))
	if err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}
	return f, nil
}

func (s *FeedbackStore) ListByLog(ctx context.Context, logID int64) ([]models.Feedback, error) {
	query := `
		SELECT ` + feedbackColumns + `
		FROM feedback
		WHERE log_id = $1
		ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query, logID)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	out := make([]models.Feedback, 0)
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}

	return out, nil
}
