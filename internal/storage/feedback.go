package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/spice-lens/internal/model"
)

// DefaultFeedbackSource labels feedback recorded without a source.
const DefaultFeedbackSource = "cli"

// SaveFeedback records a category correction and fills in its ID and timestamp.
func (s *SQLiteStorage) SaveFeedback(ctx context.Context, fb *model.Feedback) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateFeedback(fb); err != nil {
		return err
	}

	if fb.RecordedAt.IsZero() {
		fb.RecordedAt = time.Now().UTC()
	}
	if fb.Source == "" {
		fb.Source = DefaultFeedbackSource
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback (transaction_id, description, predicted_category, corrected_category, confidence, source, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		fb.TransactionID,
		fb.Description,
		fb.PredictedCategory,
		fb.CorrectedCategory,
		fb.Confidence,
		fb.Source,
		fb.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get feedback ID: %w", err)
	}
	fb.ID = id

	return nil
}

// ListFeedback returns the most recent corrections first.
func (s *SQLiteStorage) ListFeedback(ctx context.Context, limit int) ([]model.Feedback, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, transaction_id, description, predicted_category, corrected_category, confidence, source, recorded_at
		FROM feedback
		ORDER BY recorded_at DESC, id DESC
		LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	feedback := make([]model.Feedback, 0)
	for rows.Next() {
		var fb model.Feedback
		if err := rows.Scan(
			&fb.ID,
			&fb.TransactionID,
			&fb.Description,
			&fb.PredictedCategory,
			&fb.CorrectedCategory,
			&fb.Confidence,
			&fb.Source,
			&fb.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		feedback = append(feedback, fb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}
	return feedback, nil
}
