// Package coordinator sequences the analysis agents into one aggregate report.
//
// The analysis is an explicit pipeline of named stages. Each stage receives the
// state produced by the previous one and returns a new state; observers can
// inspect the state after every stage and stages can be replaced by name.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/spice-lens/internal/agent"
	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/metrics"
	"github.com/Veraticus/spice-lens/internal/model"
)

// Stage names in execution order.
const (
	StageCategorize = "categorize"
	StageSummary    = "summary"
	StageForecast   = "forecast"
	StageAnomalies  = "anomalies"
	StageRisk       = "risk"
	StageBehaviour  = "behaviour"
	StageAssemble   = "assemble"
)

// DefaultForecastMonths is the forecast horizon when none is configured.
const DefaultForecastMonths = 3

// ErrUnknownStage is returned when replacing a stage that does not exist.
var ErrUnknownStage = errors.New("unknown pipeline stage")

// State flows through the pipeline. Stages must not mutate slices or maps they
// did not create; they return a new State instead.
type State struct {
	Transactions []model.Transaction
	Categorized  []model.CategorizedTransaction
	Report       model.AggregateReport
}

// StageFunc transforms the pipeline state.
type StageFunc func(ctx context.Context, s State) State

// Stage is a named pipeline step.
type Stage struct {
	Run  StageFunc
	Name string
}

// Observer is called with the state after each stage completes.
type Observer func(stage string, s State)

// Options configures a Coordinator.
type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Budgets        map[string]float64
	ForecastMonths int
	AnomalyK       float64
	RiskThreshold  float64
	TrendLimit     int
}

// Coordinator runs the full analysis pipeline.
type Coordinator struct {
	spending  *agent.SpendingAgent
	risk      *agent.RiskAgent
	behaviour *agent.BehaviourAgent
	logger    *slog.Logger
	metrics   *metrics.Metrics
	budgets   map[string]float64
	stages    []Stage
	observers []Observer
	months    int
}

// New creates a coordinator whose categorize stage uses classifier.
func New(classifier agent.Classifier, opts Options) *Coordinator {
	months := opts.ForecastMonths
	if months <= 0 {
		months = DefaultForecastMonths
	}

	c := &Coordinator{
		spending:  agent.NewSpendingAgent(classifier, agent.SpendingOptions{Logger: opts.Logger, Metrics: opts.Metrics, AnomalyK: opts.AnomalyK}),
		risk:      agent.NewRiskAgent(opts.RiskThreshold),
		behaviour: agent.NewBehaviourAgent(opts.TrendLimit),
		logger:    common.OrDefault(opts.Logger),
		metrics:   opts.Metrics,
		budgets:   opts.Budgets,
		months:    months,
	}
	c.stages = c.defaultStages()

	return c
}

// Stages returns the stage names in execution order.
func (c *Coordinator) Stages() []string {
	names := make([]string, len(c.stages))
	for i, s := range c.stages {
		names[i] = s.Name
	}
	return names
}

// Observe registers an observer for every stage.
func (c *Coordinator) Observe(o Observer) {
	c.observers = append(c.observers, o)
}

// ReplaceStage swaps the implementation of the named stage.
func (c *Coordinator) ReplaceStage(name string, fn StageFunc) error {
	for i := range c.stages {
		if c.stages[i].Name == name {
			c.stages[i].Run = fn
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownStage, name)
}

// Run analyzes txns and returns the aggregate report. The input slice is not
// modified. The only error is context cancellation.
func (c *Coordinator) Run(ctx context.Context, txns []model.Transaction) (model.AggregateReport, error) {
	state := State{Transactions: model.CloneTransactions(txns)}

	for _, stage := range c.stages {
		if err := ctx.Err(); err != nil {
			return model.AggregateReport{}, fmt.Errorf("analysis canceled before %s: %w", stage.Name, err)
		}

		done := c.metrics.ObserveStage(stage.Name)
		state = stage.Run(ctx, state)
		done()

		for _, o := range c.observers {
			o(stage.Name, state)
		}
	}

	if err := ctx.Err(); err != nil {
		return model.AggregateReport{}, fmt.Errorf("analysis canceled: %w", err)
	}

	c.metrics.Report()
	c.logger.Debug("Analysis complete",
		"transactions", len(txns),
		"anomalies", len(state.Report.Anomalies),
		"risk", state.Report.Risk.Risk,
		"profile", state.Report.Profile.Profile)

	return state.Report, nil
}
