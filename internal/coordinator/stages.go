package coordinator

import (
	"context"

	"github.com/Veraticus/spice-lens/internal/alerts"
	"github.com/Veraticus/spice-lens/internal/model"
)

func (c *Coordinator) defaultStages() []Stage {
	return []Stage{
		{Name: StageCategorize, Run: c.categorize},
		{Name: StageSummary, Run: c.summarize},
		{Name: StageForecast, Run: c.forecast},
		{Name: StageAnomalies, Run: c.anomalies},
		{Name: StageRisk, Run: c.assessRisk},
		{Name: StageBehaviour, Run: c.inferBehaviour},
		{Name: StageAssemble, Run: c.assemble},
	}
}

func (c *Coordinator) categorize(ctx context.Context, s State) State {
	s.Categorized = c.spending.CategorizeAll(ctx, s.Transactions)
	return s
}

func (c *Coordinator) summarize(_ context.Context, s State) State {
	s.Report.Summary = c.spending.MonthlySummary(s.Categorized)
	s.Report.CashFlow = c.spending.MonthlyCashFlow(s.Categorized)
	s.Report.Fraud = c.spending.FraudSummary(s.Categorized)
	return s
}

func (c *Coordinator) forecast(_ context.Context, s State) State {
	s.Report.Forecast = c.spending.ForecastCashflow(s.Categorized, c.months)
	return s
}

func (c *Coordinator) anomalies(_ context.Context, s State) State {
	s.Report.Anomalies = c.spending.DetectAnomalies(s.Categorized)
	return s
}

func (c *Coordinator) assessRisk(_ context.Context, s State) State {
	s.Report.Risk = c.risk.PredictCashflowGap(s.Categorized)
	s.Report.StressScore = c.risk.StressScore(s.Report.Risk.Risk)
	return s
}

func (c *Coordinator) inferBehaviour(_ context.Context, s State) State {
	s.Report.Profile = c.behaviour.InferProfile(s.Categorized)
	s.Report.Trends = c.behaviour.DetectTrends(s.Categorized)
	return s
}

// assemble attaches the categorized transactions and budget alerts and makes
// sure every collection in the report is non-nil.
func (c *Coordinator) assemble(_ context.Context, s State) State {
	r := s.Report

	r.CategorizedTransactions = append(make([]model.CategorizedTransaction, 0, len(s.Categorized)), s.Categorized...)
	r.BudgetAlerts = alerts.CheckBudgets(r.Summary, c.budgets)

	if r.Summary.ByCategory == nil {
		r.Summary.ByCategory = map[string]float64{}
	}
	if r.Forecast == nil {
		r.Forecast = []model.ForecastPoint{}
	}
	if r.Anomalies == nil {
		r.Anomalies = []model.Anomaly{}
	}
	if r.CashFlow == nil {
		r.CashFlow = []model.MonthlyCashFlow{}
	}
	if r.Profile.TopCategories == nil {
		r.Profile.TopCategories = []string{}
	}
	if r.Trends.Entries == nil {
		r.Trends.Entries = []model.TrendEntry{}
	}

	s.Report = r
	return s
}
