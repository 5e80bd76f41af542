package scenario

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/spice-lens/internal/cascade"
	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/coordinator"
	"github.com/Veraticus/spice-lens/internal/ingest"
	"github.com/Veraticus/spice-lens/internal/metrics"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batch() []model.Transaction {
	return []model.Transaction{
		{ID: "1", Description: "Salary payroll", Amount: decimal.NewFromInt(60000), Date: "2024-03-01", Direction: model.DirectionCredit},
		{ID: "2", Description: "Amazon electronics", Amount: decimal.NewFromInt(12000), Date: "2024-03-04", Direction: model.DirectionDebit},
		{ID: "3", Description: "Myntra store order", Amount: decimal.NewFromInt(3000), Date: "2024-03-06", Direction: model.DirectionDebit},
		{ID: "4", Description: "Cafe Coffee Day", Amount: decimal.NewFromInt(400), Date: "2024-04-02", Direction: model.DirectionDebit},
		{ID: "5", Description: "Dominos pizza", Amount: decimal.NewFromInt(800), Date: "2024-04-09", Direction: model.DirectionDebit},
		{ID: "6", Description: "Rent for April", Amount: decimal.NewFromInt(18000), Date: "2024-04-01", Direction: model.DirectionDebit},
	}
}

func newSimulator(t *testing.T) *Simulator {
	t.Helper()
	return New(coordinator.New(cascade.New(nil), coordinator.Options{}), Options{})
}

func TestReduceCategory_ZeroPercentRoundTrip(t *testing.T) {
	sim := newSimulator(t)
	outcome, err := sim.ReduceCategory(context.Background(), batch(), "Shopping", 0)
	require.NoError(t, err)

	assert.Equal(t, outcome.Baseline.Summary.ByCategory, outcome.Report.Summary.ByCategory)
	assert.Zero(t, outcome.Comparison.TotalDelta)
	for _, d := range outcome.Comparison.Categories {
		assert.Zero(t, d.Delta, d.Category)
	}
}

func TestReduceCategory_FullReduction(t *testing.T) {
	sim := newSimulator(t)
	outcome, err := sim.ReduceCategory(context.Background(), batch(), "shopping", 100)
	require.NoError(t, err)

	assert.InDelta(t, 15000, outcome.Baseline.Summary.ByCategory["Shopping"], 0)
	assert.Zero(t, outcome.Report.Summary.ByCategory["Shopping"])
	assert.InDelta(t, 1200, outcome.Report.Summary.ByCategory["Dining"], 0, "other categories unchanged")
	assert.InDelta(t, -15000, outcome.Comparison.TotalDelta, 1e-9)
	assert.Contains(t, outcome.Comparison.Categories, model.CategoryDelta{
		Category: "Shopping", Baseline: 15000, WhatIf: 0, Delta: -15000,
	})
}

func TestReduceCategory_Partial(t *testing.T) {
	sim := newSimulator(t)
	outcome, err := sim.ReduceCategory(context.Background(), batch(), "Dining", 25)
	require.NoError(t, err)

	assert.InDelta(t, 900, outcome.Report.Summary.ByCategory["Dining"], 1e-9)
}

func TestChangeIncome(t *testing.T) {
	sim := newSimulator(t)
	outcome, err := sim.ChangeIncome(context.Background(), batch(), decimal.NewFromInt(-55000))
	require.NoError(t, err)

	assert.InDelta(t, 60000, outcome.Baseline.Risk.TotalIncome, 0)
	assert.InDelta(t, 5000, outcome.Report.Risk.TotalIncome, 0)
	assert.Equal(t, model.RiskLow, outcome.Comparison.BaselineRisk)
	// average debit 6840 against 5000 of income
	assert.Equal(t, model.RiskHigh, outcome.Comparison.WhatIfRisk)
	assert.InDelta(t, 0.8, outcome.Comparison.StressDelta, 1e-9)
}

func TestReallocate(t *testing.T) {
	sim := newSimulator(t)
	outcome, err := sim.Reallocate(context.Background(), batch(), "Shopping", "Savings", decimal.NewFromInt(5000))
	require.NoError(t, err)

	txns := outcome.Report.CategorizedTransactions
	require.Len(t, txns, len(batch())+2)

	from, to := txns[len(txns)-2], txns[len(txns)-1]
	assert.True(t, from.Adjustment)
	assert.Equal(t, "Shopping", from.ResolvedCategory())
	assert.True(t, from.Amount.Equal(decimal.NewFromInt(-5000)))
	assert.Equal(t, "2024-04-01", from.Date, "dated in the latest month")
	assert.Equal(t, "Savings", to.ResolvedCategory())
	assert.True(t, to.Amount.Equal(decimal.NewFromInt(5000)))
	assert.NotEqual(t, from.ID, to.ID)

	assert.InDelta(t, 10000, outcome.Report.Summary.ByCategory["Shopping"], 0)
	assert.InDelta(t, 5000, outcome.Report.Summary.ByCategory["Savings"], 0)
	assert.Zero(t, outcome.Comparison.TotalDelta)
	assert.Equal(t, outcome.Baseline.Risk, outcome.Report.Risk, "adjustments do not change cash-flow risk")

	again, err := sim.Reallocate(context.Background(), batch(), "Shopping", "Savings", decimal.NewFromInt(5000))
	require.NoError(t, err)
	againTxns := again.Report.CategorizedTransactions
	assert.Equal(t, from.ID, againTxns[len(againTxns)-2].ID, "adjustment IDs are deterministic")
}

func TestReallocate_SignedLedger(t *testing.T) {
	statement := `date,description,amount
2024-03-01,Salary payroll,60000
2024-03-03,Myntra store order,-15000
2024-03-05,Dominos pizza,-800
`
	txns, err := ingest.ReadCSV(context.Background(), strings.NewReader(statement), nil)
	require.NoError(t, err)

	sim := newSimulator(t)
	outcome, err := sim.Reallocate(context.Background(), txns, "Shopping", "Dining", decimal.NewFromInt(5000))
	require.NoError(t, err)

	assert.InDelta(t, 15800, outcome.Baseline.Summary.TotalSpent, 1e-9)
	assert.InDelta(t, 15000, outcome.Baseline.Summary.ByCategory["Shopping"], 1e-9)
	assert.InDelta(t, 800, outcome.Baseline.Summary.ByCategory["Dining"], 1e-9)
	assert.NotContains(t, outcome.Baseline.Summary.ByCategory, "Income")

	assert.InDelta(t, 10000, outcome.Report.Summary.ByCategory["Shopping"], 1e-9)
	assert.InDelta(t, 5800, outcome.Report.Summary.ByCategory["Dining"], 1e-9)
	assert.InDelta(t, 15800, outcome.Report.Summary.TotalSpent, 1e-9)
	assert.Contains(t, outcome.Comparison.Categories, model.CategoryDelta{
		Category: "Shopping", Baseline: 15000, WhatIf: 10000, Delta: -5000,
	})

	require.NotEmpty(t, outcome.Baseline.Forecast)
	assert.InDelta(t, 15800, outcome.Baseline.Forecast[0].PredictedSpending, 1e-9, "salary is not forecast as spend")
}

func TestSimulate_DoesNotMutateInput(t *testing.T) {
	sim := newSimulator(t)
	input := batch()

	_, err := sim.ReduceCategory(context.Background(), input, "Shopping", 50)
	require.NoError(t, err)
	_, err = sim.ChangeIncome(context.Background(), input, decimal.NewFromInt(1000))
	require.NoError(t, err)
	_, err = sim.Reallocate(context.Background(), input, "Dining", "Rent", decimal.NewFromInt(100))
	require.NoError(t, err)

	assert.Equal(t, batch(), input)
}

func TestSimulate_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		scenario model.Scenario
	}{
		{name: "unknown kind", scenario: model.Scenario{Kind: "grow_savings"}},
		{name: "empty kind", scenario: model.Scenario{}},
		{name: "missing category", scenario: model.Scenario{Kind: model.ScenarioReduceCategory, Percent: 10}},
		{name: "percent above 100", scenario: model.Scenario{Kind: model.ScenarioReduceCategory, Category: "Dining", Percent: 120}},
		{name: "negative percent", scenario: model.Scenario{Kind: model.ScenarioReduceCategory, Category: "Dining", Percent: -5}},
		{name: "missing target", scenario: model.Scenario{Kind: model.ScenarioReallocate, From: "Dining", Amount: decimal.NewFromInt(10)}},
		{name: "same categories", scenario: model.Scenario{Kind: model.ScenarioReallocate, From: "Dining", To: "dining", Amount: decimal.NewFromInt(10)}},
		{name: "negative amount", scenario: model.Scenario{Kind: model.ScenarioReallocate, From: "Dining", To: "Rent", Amount: decimal.NewFromInt(-10)}},
	}

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	sim := New(coordinator.New(cascade.New(nil), coordinator.Options{}), Options{Metrics: m})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sim.Simulate(context.Background(), batch(), tt.scenario)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidScenario)

			var userErr *common.UserError
			assert.True(t, errors.As(err, &userErr))
		})
	}

	count, err := testutil.GatherAndCount(reg, "lens_scenario_simulations_total")
	require.NoError(t, err)
	assert.Positive(t, count)
}

func TestSimulate_UndeclaredKindsShareOneLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	sim := New(coordinator.New(cascade.New(nil), coordinator.Options{}), Options{Metrics: m})

	for _, kind := range []model.ScenarioKind{"teleport", "double_everything", ""} {
		_, err := sim.Simulate(context.Background(), batch(), model.Scenario{Kind: kind})
		require.ErrorIs(t, err, common.ErrInvalidScenario)
	}
	_, err = sim.Simulate(context.Background(), batch(), model.Scenario{Kind: model.ScenarioReduceCategory, Percent: 10})
	require.Error(t, err)

	expected := `
# HELP lens_scenario_simulations_total Scenario simulations by kind and outcome.
# TYPE lens_scenario_simulations_total counter
lens_scenario_simulations_total{kind="reduce_category",outcome="rejected"} 1
lens_scenario_simulations_total{kind="unknown",outcome="rejected"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "lens_scenario_simulations_total"))
}

type failingAnalyzer struct{}

func (failingAnalyzer) Run(context.Context, []model.Transaction) (model.AggregateReport, error) {
	return model.AggregateReport{}, context.Canceled
}

func TestSimulate_AnalyzerError(t *testing.T) {
	sim := New(failingAnalyzer{}, Options{})
	_, err := sim.ChangeIncome(context.Background(), batch(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulate_EmptyBatch(t *testing.T) {
	sim := newSimulator(t)
	outcome, err := sim.Reallocate(context.Background(), nil, "Dining", "Savings", decimal.NewFromInt(100))
	require.NoError(t, err)

	require.Len(t, outcome.Report.CategorizedTransactions, 2)
	assert.Equal(t, "", outcome.Report.CategorizedTransactions[0].Date)
}

func TestCompare(t *testing.T) {
	baseline := model.AggregateReport{
		Summary:     model.Summary{TotalSpent: 100.1, ByCategory: map[string]float64{"Dining": 60.1, "Rent": 40}},
		Forecast:    []model.ForecastPoint{{MonthOffset: 1, PredictedSpending: 50.05}},
		Risk:        model.RiskAssessment{Risk: model.RiskMedium},
		Profile:     model.Profile{Profile: model.ProfileSocialSpender},
		StressScore: 0.5,
		Anomalies:   []model.Anomaly{{}},
	}
	whatIf := model.AggregateReport{
		Summary:     model.Summary{TotalSpent: 70.2, ByCategory: map[string]float64{"Dining": 30.2, "Savings": 0}},
		Forecast:    []model.ForecastPoint{{MonthOffset: 1, PredictedSpending: 35.1}},
		Risk:        model.RiskAssessment{Risk: model.RiskLow},
		Profile:     model.Profile{Profile: model.ProfileBudgetConscious},
		StressScore: 0.1,
	}

	cmp := Compare(baseline, whatIf)
	assert.InDelta(t, -29.9, cmp.TotalDelta, 1e-12)
	assert.InDelta(t, -14.95, cmp.ForecastDelta, 1e-12)
	assert.InDelta(t, -0.4, cmp.StressDelta, 1e-12)
	assert.Equal(t, -1, cmp.AnomalyCountDelta)
	assert.Equal(t, model.RiskMedium, cmp.BaselineRisk)
	assert.Equal(t, model.RiskLow, cmp.WhatIfRisk)
	assert.Equal(t, []model.CategoryDelta{
		{Category: "Dining", Baseline: 60.1, WhatIf: 30.2, Delta: -29.9},
		{Category: "Rent", Baseline: 40, WhatIf: 0, Delta: -40},
		{Category: "Savings", Baseline: 0, WhatIf: 0, Delta: 0},
	}, cmp.Categories)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	content := `scenarios:
  - name: Cut dining
    kind: reduce_category
    category: Dining
    percent: 20
  - name: Raise
    kind: income_change
    delta: 5000.50
  - name: Save more
    kind: reallocate
    from: Shopping
    to: Savings
    amount: 2000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	scenarios, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, scenarios, 3)

	assert.Equal(t, model.ScenarioReduceCategory, scenarios[0].Kind)
	assert.InDelta(t, 20, scenarios[0].Percent, 0)
	assert.True(t, scenarios[1].Delta.Equal(decimal.RequireFromString("5000.50")))
	assert.True(t, scenarios[2].Amount.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, "Savings", scenarios[2].To)

	_, err = Parse([]byte("scenarios:\n  - kind: teleport\n"))
	assert.ErrorIs(t, err, common.ErrInvalidScenario)

	_, err = Parse([]byte("scenarios: []\n"))
	assert.ErrorIs(t, err, common.ErrInvalidScenario)

	_, err = Parse([]byte("scenarios: [unterminated"))
	assert.ErrorIs(t, err, common.ErrInvalidScenario)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
