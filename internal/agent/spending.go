package agent

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/metrics"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultAnomalyK is the number of standard deviations beyond which an amount is anomalous.
const DefaultAnomalyK = 3.0

// SpendingAgent categorizes transactions and derives spend summaries from them.
type SpendingAgent struct {
	classifier Classifier
	logger     *slog.Logger
	metrics    *metrics.Metrics
	anomalyK   float64
}

// SpendingOptions configures a SpendingAgent.
type SpendingOptions struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	AnomalyK float64
}

// NewSpendingAgent creates a spending agent backed by classifier.
func NewSpendingAgent(classifier Classifier, opts SpendingOptions) *SpendingAgent {
	k := opts.AnomalyK
	if k <= 0 {
		k = DefaultAnomalyK
	}
	return &SpendingAgent{
		classifier: classifier,
		anomalyK:   k,
		logger:     common.OrDefault(opts.Logger),
		metrics:    opts.Metrics,
	}
}

// Categorize attaches a prediction to one transaction.
func (a *SpendingAgent) Categorize(ctx context.Context, txn model.Transaction) model.CategorizedTransaction {
	if txn.Adjustment {
		return model.CategorizedTransaction{Transaction: txn, Prediction: a.pinned(txn)}
	}
	return model.CategorizedTransaction{
		Transaction: txn,
		Prediction:  a.classifier.Classify(ctx, txn.Description, decimal.NewNullDecimal(txn.Amount)),
	}
}

// CategorizeAll attaches predictions to every transaction, preserving order.
// Adjustment rows keep their tagged category and never reach the classifier.
func (a *SpendingAgent) CategorizeAll(ctx context.Context, txns []model.Transaction) []model.CategorizedTransaction {
	out := make([]model.CategorizedTransaction, len(txns))

	pending := make([]model.Transaction, 0, len(txns))
	positions := make([]int, 0, len(txns))
	for i, txn := range txns {
		if txn.Adjustment {
			out[i] = model.CategorizedTransaction{Transaction: txn, Prediction: a.pinned(txn)}
			continue
		}
		pending = append(pending, txn)
		positions = append(positions, i)
	}

	predictions := a.classifier.ClassifyBatch(ctx, pending)
	for j, pos := range positions {
		out[pos] = model.CategorizedTransaction{Transaction: pending[j], Prediction: predictions[j]}
	}

	a.logger.Debug("Categorized transactions",
		"total", len(txns),
		"classified", len(pending),
		"adjustments", len(txns)-len(pending))

	return out
}

// pinned is the fixed prediction of an adjustment row: its tagged category, no fraud.
func (a *SpendingAgent) pinned(txn model.Transaction) model.PredictionResult {
	a.metrics.Decision(metrics.StepCategory, metrics.PathPinned)
	category := txn.Category
	if category == "" {
		category = model.UnknownCategory
	}
	return model.NewPredictionResult(category, 1, 0, model.ModelVersionFallback)
}

// MonthlySummary totals spend by resolved category. Credits are not spend.
func (a *SpendingAgent) MonthlySummary(txns []model.CategorizedTransaction) model.Summary {
	total := decimal.Zero
	sums := newOrderedSums()
	for _, t := range txns {
		spend, ok := spendOf(t.Transaction)
		if !ok {
			continue
		}
		sums.add(t.ResolvedCategory(), spend)
		total = total.Add(spend)
	}

	byCategory := make(map[string]float64, len(sums.totals))
	for k, v := range sums.totals {
		byCategory[k] = v.InexactFloat64()
	}

	return model.Summary{
		TotalSpent: total.InexactFloat64(),
		ByCategory: byCategory,
	}
}

// ForecastCashflow projects the mean monthly spend forward for each of months offsets.
// Transactions without a valid date fall into the "unknown" bucket.
func (a *SpendingAgent) ForecastCashflow(txns []model.CategorizedTransaction, months int) []model.ForecastPoint {
	forecast := make([]model.ForecastPoint, 0, max(months, 0))
	if months <= 0 {
		return forecast
	}

	monthly := newOrderedSums()
	for _, t := range txns {
		if spend, ok := spendOf(t.Transaction); ok {
			monthly.add(t.Month(), spend)
		}
	}
	if len(monthly.totals) == 0 {
		return forecast
	}

	sum := decimal.Zero
	for _, v := range monthly.totals {
		sum = sum.Add(v)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(monthly.totals)))).Round(2).InexactFloat64()

	for i := 1; i <= months; i++ {
		forecast = append(forecast, model.ForecastPoint{MonthOffset: i, PredictedSpending: mean})
	}
	return forecast
}

// DetectAnomalies flags observed transactions whose amount lies more than k
// population standard deviations from the mean.
func (a *SpendingAgent) DetectAnomalies(txns []model.CategorizedTransaction) []model.Anomaly {
	anomalies := make([]model.Anomaly, 0)

	candidates := observed(txns)
	if len(candidates) < 2 {
		return anomalies
	}

	amounts := make([]float64, len(candidates))
	for i, t := range candidates {
		amounts[i] = t.AmountFloat()
	}

	mean, std := meanStd(amounts)
	if std <= 0 {
		return anomalies
	}

	for i, t := range candidates {
		if math.Abs(amounts[i]-mean) > a.anomalyK*std {
			anomalies = append(anomalies, model.Anomaly{
				CategorizedTransaction: t,
				ZScore:                 (amounts[i] - mean) / std,
			})
		}
	}
	return anomalies
}

// MonthlyCashFlow reports income, expense and savings per month, oldest first.
// Credits count as income; debits and unspecified rows count as expense by magnitude.
func (a *SpendingAgent) MonthlyCashFlow(txns []model.CategorizedTransaction) []model.MonthlyCashFlow {
	type position struct {
		income  decimal.Decimal
		expense decimal.Decimal
	}
	byMonth := make(map[string]*position)

	for _, t := range observed(txns) {
		month := t.Month()
		p, ok := byMonth[month]
		if !ok {
			p = &position{}
			byMonth[month] = p
		}
		if t.Direction == model.DirectionCredit {
			p.income = p.income.Add(t.Amount)
			continue
		}
		p.expense = p.expense.Add(t.Amount.Abs())
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]model.MonthlyCashFlow, 0, len(months))
	for _, m := range months {
		p := byMonth[m]
		out = append(out, model.MonthlyCashFlow{
			Month:   m,
			Income:  p.income.InexactFloat64(),
			Expense: p.expense.InexactFloat64(),
			Savings: p.income.Sub(p.expense).InexactFloat64(),
		})
	}
	return out
}

// FraudSummary counts the transactions flagged as fraud.
func (a *SpendingAgent) FraudSummary(txns []model.CategorizedTransaction) model.FraudSummary {
	summary := model.FraudSummary{Total: len(txns)}
	for _, t := range txns {
		if t.Prediction.IsFraud {
			summary.Flagged++
		}
	}
	if summary.Total > 0 {
		summary.Percentage = round2(float64(summary.Flagged) / float64(summary.Total) * 100)
	}
	return summary
}
