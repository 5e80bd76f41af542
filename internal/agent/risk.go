package agent

import (
	"fmt"

	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultRiskThreshold is the tolerated excess of average expense over income.
const DefaultRiskThreshold = 0.2

var stressScores = map[model.RiskRating]float64{
	model.RiskLow:    0.1,
	model.RiskMedium: 0.5,
	model.RiskHigh:   0.9,
}

// RiskAgent rates cash-flow gap risk.
type RiskAgent struct {
	threshold float64
}

// NewRiskAgent creates a risk agent. A non-positive threshold uses the default.
func NewRiskAgent(threshold float64) *RiskAgent {
	if threshold <= 0 {
		threshold = DefaultRiskThreshold
	}
	return &RiskAgent{threshold: threshold}
}

// PredictCashflowGap compares the average debit against total credit income.
// Synthetic adjustment rows are ignored.
func (a *RiskAgent) PredictCashflowGap(txns []model.CategorizedTransaction) model.RiskAssessment {
	income := decimal.Zero
	expenses := decimal.Zero
	debits := 0

	for _, t := range observed(txns) {
		switch t.Direction {
		case model.DirectionCredit:
			income = income.Add(t.Amount)
		case model.DirectionDebit:
			expenses = expenses.Add(t.Amount.Abs())
			debits++
		}
	}

	totalIncome := income.InexactFloat64()
	avgExpense := 0.0
	if debits > 0 {
		avgExpense = expenses.Div(decimal.NewFromInt(int64(debits))).InexactFloat64()
	}

	result := model.RiskAssessment{
		Risk:        model.RiskLow,
		TotalIncome: totalIncome,
		AvgExpense:  avgExpense,
	}

	switch {
	case totalIncome == 0 && avgExpense > 0:
		result.Risk = model.RiskHigh
		result.Reason = "No recent income found but there are expenses."
	case totalIncome > 0 && avgExpense/totalIncome > 1+a.threshold:
		result.Risk = model.RiskHigh
		result.Reason = fmt.Sprintf("Expense to income ratio too high: %.2f", avgExpense/totalIncome)
	case totalIncome > 0 && avgExpense/totalIncome > 1:
		result.Risk = model.RiskMedium
		result.Reason = "Monthly expenses slightly exceed income."
	default:
		result.Reason = "Income sufficient for recent expense levels."
	}

	return result
}

// StressScore maps a risk rating onto [0, 1]. Unrecognized ratings score as low.
func (a *RiskAgent) StressScore(risk model.RiskRating) float64 {
	if score, ok := stressScores[risk]; ok {
		return score
	}
	return stressScores[model.RiskLow]
}
