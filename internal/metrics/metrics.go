// Package metrics defines the Prometheus collectors for the analysis pipeline.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lens"

// Decision step labels.
const (
	StepCategory = "category"
	StepFraud    = "fraud"
)

// Decision path labels.
const (
	PathModel    = "model"
	PathFallback = "fallback"
	PathPinned   = "pinned"
	PathMemo     = "memo"
)

// Provider fault labels.
const (
	FaultError   = "error"
	FaultInvalid = "invalid_output"
	FaultTimeout = "timeout"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	decisions      *prometheus.CounterVec
	providerFaults *prometheus.CounterVec
	memoLookups    *prometheus.CounterVec
	riskLevels     *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	scenarios      *prometheus.CounterVec
	reports        prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cascade",
			Name:      "decisions_total",
			Help:      "Classification decisions by step and path taken.",
		}, []string{"step", "path"}),

		providerFaults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cascade",
			Name:      "provider_faults_total",
			Help:      "Classifier provider calls that were treated as unavailable.",
		}, []string{"step", "reason"}),

		memoLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cascade",
			Name:      "memo_lookups_total",
			Help:      "Memo lookups by result.",
		}, []string{"result"}),

		riskLevels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cascade",
			Name:      "fraud_risk_levels_total",
			Help:      "Predictions by fraud risk level.",
		}, []string{"level"}),

		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Coordinator stage duration in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"stage"}),

		scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "simulations_total",
			Help:      "Scenario simulations by kind and outcome.",
		}, []string{"kind", "outcome"}),

		reports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_total",
			Help:      "Aggregate reports produced.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.decisions, m.providerFaults, m.memoLookups, m.riskLevels,
		m.stageDuration, m.scenarios, m.reports,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return m, nil
}

// Decision records which path produced a category or fraud verdict.
func (m *Metrics) Decision(step, path string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(step, path).Inc()
}

// ProviderFault records a provider call that fell back.
func (m *Metrics) ProviderFault(step, reason string) {
	if m == nil {
		return
	}
	m.providerFaults.WithLabelValues(step, reason).Inc()
}

// MemoLookup records a memo hit or miss.
func (m *Metrics) MemoLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.memoLookups.WithLabelValues(result).Inc()
}

// RiskLevel records the banded level of a prediction.
func (m *Metrics) RiskLevel(level string) {
	if m == nil {
		return
	}
	m.riskLevels.WithLabelValues(level).Inc()
}

// ObserveStage returns a function that records the stage's duration when called.
func (m *Metrics) ObserveStage(stage string) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}
}

// Scenario records a simulation outcome ("ok" or "rejected").
func (m *Metrics) Scenario(kind, outcome string) {
	if m == nil {
		return
	}
	m.scenarios.WithLabelValues(kind, outcome).Inc()
}

// Report records a completed aggregate report.
func (m *Metrics) Report() {
	if m == nil {
		return
	}
	m.reports.Inc()
}
