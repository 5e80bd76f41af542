package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/google/uuid"
)

// SaveScenario stores a scenario and its comparison. analysisID may be empty.
func (s *SQLiteStorage) SaveScenario(ctx context.Context, analysisID string, outcome model.Outcome) (*model.ScenarioRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateOutcome(outcome); err != nil {
		return nil, err
	}

	scenarioJSON, err := json.Marshal(outcome.Scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scenario: %w", err)
	}
	comparisonJSON, err := json.Marshal(outcome.Comparison)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comparison: %w", err)
	}

	record := &model.ScenarioRecord{
		ID:         uuid.New().String(),
		AnalysisID: analysisID,
		CreatedAt:  time.Now().UTC(),
		Scenario:   outcome.Scenario,
		Comparison: outcome.Comparison,
	}

	var link sql.NullString
	if analysisID != "" {
		link = sql.NullString{String: analysisID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scenarios (id, analysis_id, kind, scenario, comparison, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		link,
		string(outcome.Scenario.Kind),
		string(scenarioJSON),
		string(comparisonJSON),
		record.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save scenario: %w", err)
	}

	return record, nil
}

// ListScenarios returns the scenarios linked to an analysis, oldest first.
// An empty analysisID lists every stored scenario.
func (s *SQLiteStorage) ListScenarios(ctx context.Context, analysisID string) ([]model.ScenarioRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT id, analysis_id, scenario, comparison, created_at FROM scenarios`
	var args []any
	if analysisID != "" {
		query += ` WHERE analysis_id = ?`
		args = append(args, analysisID)
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]model.ScenarioRecord, 0)
	for rows.Next() {
		var (
			record                     model.ScenarioRecord
			link                       sql.NullString
			scenarioJSON, comparisonJS string
		)
		if err := rows.Scan(&record.ID, &link, &scenarioJSON, &comparisonJS, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		record.AnalysisID = link.String

		if err := json.Unmarshal([]byte(scenarioJSON), &record.Scenario); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scenario %s: %w", record.ID, err)
		}
		if err := json.Unmarshal([]byte(comparisonJS), &record.Comparison); err != nil {
			return nil, fmt.Errorf("failed to unmarshal comparison %s: %w", record.ID, err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scenarios: %w", err)
	}
	return records, nil
}
