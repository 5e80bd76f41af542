// Package agent implements the spending, risk and behaviour analyses that the
// coordinator composes into a report. Every agent is stateless apart from its
// configuration and safe for concurrent use.
package agent

import (
	"context"

	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/shopspring/decimal"
)

// Classifier produces predictions for transactions.
type Classifier interface {
	Classify(ctx context.Context, text string, amount decimal.NullDecimal) model.PredictionResult
	ClassifyBatch(ctx context.Context, txns []model.Transaction) []model.PredictionResult
}

// spendOf is what a transaction contributes to spend. Debits and rows without a
// direction count by magnitude and credits do not count. Adjustment rows keep
// their sign so a reallocation moves spend instead of adding it twice.
func spendOf(t model.Transaction) (decimal.Decimal, bool) {
	switch {
	case t.Adjustment:
		return t.Amount, true
	case t.Direction == model.DirectionCredit:
		return decimal.Zero, false
	default:
		return t.Amount.Abs(), true
	}
}

// observed filters out synthetic adjustment rows.
func observed(txns []model.CategorizedTransaction) []model.CategorizedTransaction {
	out := make([]model.CategorizedTransaction, 0, len(txns))
	for _, t := range txns {
		if !t.Adjustment {
			out = append(out, t)
		}
	}
	return out
}

// orderedSums accumulates decimal totals by key, remembering first-seen order.
type orderedSums struct {
	totals map[string]decimal.Decimal
	order  []string
}

func newOrderedSums() *orderedSums {
	return &orderedSums{totals: make(map[string]decimal.Decimal)}
}

func (s *orderedSums) add(key string, v decimal.Decimal) {
	cur, ok := s.totals[key]
	if !ok {
		s.order = append(s.order, key)
	}
	s.totals[key] = cur.Add(v)
}
