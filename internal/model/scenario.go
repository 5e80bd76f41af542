package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScenarioKind names a supported what-if transformation.
type ScenarioKind string

// Scenario kinds.
const (
	ScenarioReduceCategory ScenarioKind = "reduce_category"
	ScenarioIncomeChange   ScenarioKind = "income_change"
	ScenarioReallocate     ScenarioKind = "reallocate"
)

// Scenario is a declared perturbation of a transaction batch.
type Scenario struct {
	Delta    decimal.Decimal `json:"delta,omitempty" yaml:"delta,omitempty"`
	Amount   decimal.Decimal `json:"amount,omitempty" yaml:"amount,omitempty"`
	Name     string          `json:"name,omitempty" yaml:"name,omitempty"`
	Kind     ScenarioKind    `json:"kind" yaml:"kind"`
	Category string          `json:"category,omitempty" yaml:"category,omitempty"`
	From     string          `json:"from,omitempty" yaml:"from,omitempty"`
	To       string          `json:"to,omitempty" yaml:"to,omitempty"`
	Percent  float64         `json:"percent,omitempty" yaml:"percent,omitempty"`
}

// CategoryDelta is the change in one category's spend between two reports.
type CategoryDelta struct {
	Category string  `json:"category"`
	Baseline float64 `json:"baseline"`
	WhatIf   float64 `json:"what_if"`
	Delta    float64 `json:"delta"`
}

// Comparison summarizes how a what-if report differs from its baseline.
type Comparison struct {
	BaselineRisk      RiskRating      `json:"baseline_risk"`
	WhatIfRisk        RiskRating      `json:"what_if_risk"`
	BaselineProfile   string          `json:"baseline_profile"`
	WhatIfProfile     string          `json:"what_if_profile"`
	Categories        []CategoryDelta `json:"categories"`
	TotalDelta        float64         `json:"total_delta"`
	ForecastDelta     float64         `json:"forecast_delta"`
	StressDelta       float64         `json:"stress_delta"`
	AnomalyCountDelta int             `json:"anomaly_count_delta"`
}

// Outcome is a scenario paired with its baseline and what-if reports.
type Outcome struct {
	Baseline   AggregateReport `json:"baseline"`
	Report     AggregateReport `json:"report"`
	Scenario   Scenario        `json:"scenario"`
	Comparison Comparison      `json:"comparison"`
}

// Feedback is a human correction of a predicted category.
type Feedback struct {
	RecordedAt        time.Time `json:"recorded_at"`
	TransactionID     string    `json:"transaction_id"`
	Description       string    `json:"description"`
	PredictedCategory string    `json:"predicted_category"`
	CorrectedCategory string    `json:"corrected_category"`
	Source            string    `json:"source"`
	ID                int64     `json:"id"`
	Confidence        float64   `json:"confidence"`
}

// AnalysisRecord is a stored report with its identity and metadata.
type AnalysisRecord struct {
	CreatedAt        time.Time       `json:"created_at"`
	ID               string          `json:"id"`
	Label            string          `json:"label"`
	Report           AggregateReport `json:"report"`
	TransactionCount int             `json:"transaction_count"`
}

// ScenarioRecord is a stored scenario run, optionally linked to a saved analysis.
type ScenarioRecord struct {
	CreatedAt  time.Time  `json:"created_at"`
	ID         string     `json:"id"`
	AnalysisID string     `json:"analysis_id,omitempty"`
	Scenario   Scenario   `json:"scenario"`
	Comparison Comparison `json:"comparison"`
}

// Outcome rebuilds the comparison view of a stored run. Full reports are not stored with scenarios.
func (r ScenarioRecord) Outcome() Outcome {
	return Outcome{Scenario: r.Scenario, Comparison: r.Comparison}
}
