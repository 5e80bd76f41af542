// Package service defines the interfaces shared by the CLI and its adapters.
package service

import (
	"context"

	"github.com/Veraticus/spice-lens/internal/model"
)

// Store persists analysis reports, scenario runs and category feedback.
// The analysis core never depends on it; the CLI saves results after a run.
type Store interface {
	// Analysis operations
	SaveAnalysis(ctx context.Context, label string, report model.AggregateReport) (*model.AnalysisRecord, error)
	GetAnalysis(ctx context.Context, id string) (*model.AnalysisRecord, error)
	ListAnalyses(ctx context.Context, limit int) ([]model.AnalysisRecord, error)

	// Scenario operations
	SaveScenario(ctx context.Context, analysisID string, outcome model.Outcome) (*model.ScenarioRecord, error)
	ListScenarios(ctx context.Context, analysisID string) ([]model.ScenarioRecord, error)

	// Feedback operations
	SaveFeedback(ctx context.Context, feedback *model.Feedback) error
	ListFeedback(ctx context.Context, limit int) ([]model.Feedback, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
