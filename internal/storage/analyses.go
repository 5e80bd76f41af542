package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/google/uuid"
)

// SaveAnalysis stores a report under a new random ID.
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, label string, report model.AggregateReport) (*model.AnalysisRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	record := &model.AnalysisRecord{
		ID:               uuid.New().String(),
		Label:            label,
		CreatedAt:        time.Now().UTC(),
		TransactionCount: len(report.CategorizedTransactions),
		Report:           report,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (id, label, transaction_count, total_spent, risk, profile, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.Label,
		record.TransactionCount,
		report.Summary.TotalSpent,
		string(report.Risk.Risk),
		report.Profile.Profile,
		string(data),
		record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	return record, nil
}

// GetAnalysis loads one stored report. Missing IDs return common.ErrNotFound.
func (s *SQLiteStorage) GetAnalysis(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var (
		record model.AnalysisRecord
		data   string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, transaction_count, report, created_at
		FROM analyses
		WHERE id = ?
	`, id).Scan(
		&record.ID,
		&record.Label,
		&record.TransactionCount,
		&data,
		&record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	if err := json.Unmarshal([]byte(data), &record.Report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report %s: %w", id, err)
	}

	return &record, nil
}

// ListAnalyses returns the most recent analyses first. Reports are left empty
// apart from the headline summary fields.
func (s *SQLiteStorage) ListAnalyses(ctx context.Context, limit int) ([]model.AnalysisRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, transaction_count, total_spent, risk, profile, created_at
		FROM analyses
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]model.AnalysisRecord, 0)
	for rows.Next() {
		var (
			record model.AnalysisRecord
			risk   string
		)
		if err := rows.Scan(
			&record.ID,
			&record.Label,
			&record.TransactionCount,
			&record.Report.Summary.TotalSpent,
			&risk,
			&record.Report.Profile.Profile,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		record.Report.Risk.Risk = model.RiskRating(risk)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analyses: %w", err)
	}
	return records, nil
}
