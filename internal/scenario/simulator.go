// Package scenario replays the analysis pipeline over perturbed transaction
// batches to answer what-if questions.
package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/metrics"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// adjustmentNamespace scopes the deterministic IDs of synthetic rows.
var adjustmentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/Veraticus/spice-lens/adjustment"))

var hundred = decimal.NewFromInt(100)

// Analyzer produces an aggregate report for a batch.
type Analyzer interface {
	Run(ctx context.Context, txns []model.Transaction) (model.AggregateReport, error)
}

// Simulator applies scenarios to copies of a batch and re-runs the analysis.
type Simulator struct {
	analyzer Analyzer
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Options configures a Simulator.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// New creates a simulator around analyzer.
func New(analyzer Analyzer, opts Options) *Simulator {
	return &Simulator{
		analyzer: analyzer,
		logger:   common.OrDefault(opts.Logger),
		metrics:  opts.Metrics,
	}
}

// kindLabel bounds the metric label to the declared kinds.
func kindLabel(kind model.ScenarioKind) string {
	switch kind {
	case model.ScenarioReduceCategory, model.ScenarioIncomeChange, model.ScenarioReallocate:
		return string(kind)
	default:
		return "unknown"
	}
}

// Simulate runs the baseline analysis, applies sc to a copy of the batch and
// analyzes the result. Categories used for selection come from the baseline.
func (s *Simulator) Simulate(ctx context.Context, txns []model.Transaction, sc model.Scenario) (model.Outcome, error) {
	if err := Validate(sc); err != nil {
		s.metrics.Scenario(kindLabel(sc.Kind), "rejected")
		return model.Outcome{}, err
	}

	baseline, err := s.analyzer.Run(ctx, txns)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("baseline analysis failed: %w", err)
	}

	modified := Apply(baseline.CategorizedTransactions, sc)

	report, err := s.analyzer.Run(ctx, modified)
	if err != nil {
		return model.Outcome{}, fmt.Errorf("scenario analysis failed: %w", err)
	}

	s.metrics.Scenario(kindLabel(sc.Kind), "ok")
	s.logger.Debug("Scenario simulated",
		"kind", sc.Kind,
		"name", sc.Name,
		"transactions", len(modified))

	return model.Outcome{
		Scenario:   sc,
		Baseline:   baseline,
		Report:     report,
		Comparison: Compare(baseline, report),
	}, nil
}

// ReduceCategory scales every transaction in category by (1 - percent/100).
func (s *Simulator) ReduceCategory(ctx context.Context, txns []model.Transaction, category string, percent float64) (model.Outcome, error) {
	return s.Simulate(ctx, txns, model.Scenario{Kind: model.ScenarioReduceCategory, Category: category, Percent: percent})
}

// ChangeIncome adds delta to every credit transaction.
func (s *Simulator) ChangeIncome(ctx context.Context, txns []model.Transaction, delta decimal.Decimal) (model.Outcome, error) {
	return s.Simulate(ctx, txns, model.Scenario{Kind: model.ScenarioIncomeChange, Delta: delta})
}

// Reallocate moves amount of spend from one category to another.
func (s *Simulator) Reallocate(ctx context.Context, txns []model.Transaction, from, to string, amount decimal.Decimal) (model.Outcome, error) {
	return s.Simulate(ctx, txns, model.Scenario{Kind: model.ScenarioReallocate, From: from, To: to, Amount: amount})
}

// Validate rejects unknown kinds and out-of-range parameters.
func Validate(sc model.Scenario) error {
	switch sc.Kind {
	case model.ScenarioReduceCategory:
		if strings.TrimSpace(sc.Category) == "" {
			return common.NewUserError("reduce_category needs a category", common.ErrInvalidScenario)
		}
		if math.IsNaN(sc.Percent) || sc.Percent < 0 || sc.Percent > 100 {
			return common.NewUserError(fmt.Sprintf("percent must be between 0 and 100, got %v", sc.Percent), common.ErrInvalidScenario)
		}
	case model.ScenarioIncomeChange:
	case model.ScenarioReallocate:
		if strings.TrimSpace(sc.From) == "" || strings.TrimSpace(sc.To) == "" {
			return common.NewUserError("reallocate needs both from and to categories", common.ErrInvalidScenario)
		}
		if strings.EqualFold(strings.TrimSpace(sc.From), strings.TrimSpace(sc.To)) {
			return common.NewUserError("reallocate needs two different categories", common.ErrInvalidScenario)
		}
		if sc.Amount.IsNegative() {
			return common.NewUserError("reallocation amount must not be negative", common.ErrInvalidScenario)
		}
	default:
		return common.NewUserError(fmt.Sprintf("unknown scenario kind %q", sc.Kind), common.ErrInvalidScenario)
	}
	return nil
}

// Apply returns a new batch with sc applied to categorized. It never modifies
// its input. sc must already be valid.
func Apply(categorized []model.CategorizedTransaction, sc model.Scenario) []model.Transaction {
	out := make([]model.Transaction, 0, len(categorized)+2)

	switch sc.Kind {
	case model.ScenarioReduceCategory:
		factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(sc.Percent).Div(hundred))
		for _, t := range categorized {
			txn := t.Transaction
			if strings.EqualFold(t.ResolvedCategory(), strings.TrimSpace(sc.Category)) {
				txn.Amount = txn.Amount.Mul(factor)
			}
			out = append(out, txn)
		}

	case model.ScenarioIncomeChange:
		for _, t := range categorized {
			txn := t.Transaction
			if txn.Direction == model.DirectionCredit {
				txn.Amount = txn.Amount.Add(sc.Delta)
			}
			out = append(out, txn)
		}

	case model.ScenarioReallocate:
		for _, t := range categorized {
			out = append(out, t.Transaction)
		}
		out = append(out, adjustments(categorized, sc)...)

	default:
		for _, t := range categorized {
			out = append(out, t.Transaction)
		}
	}

	return out
}

// adjustments builds the two synthetic rows of a reallocation, dated in the
// latest month present in the batch.
func adjustments(categorized []model.CategorizedTransaction, sc model.Scenario) []model.Transaction {
	from := strings.TrimSpace(sc.From)
	to := strings.TrimSpace(sc.To)
	amount := sc.Amount.Abs()

	date := ""
	if month := latestMonth(categorized); month != "" {
		date = month + "-01"
	}

	seed := fmt.Sprintf("%s|%s|%s|%s", from, to, amount.String(), date)
	return []model.Transaction{
		{
			ID:          uuid.NewSHA1(adjustmentNamespace, []byte(seed+"|from")).String(),
			Description: "Move from " + from,
			Amount:      amount.Neg(),
			Date:        date,
			Direction:   model.DirectionDebit,
			Category:    from,
			Adjustment:  true,
		},
		{
			ID:          uuid.NewSHA1(adjustmentNamespace, []byte(seed+"|to")).String(),
			Description: "Move to " + to,
			Amount:      amount,
			Date:        date,
			Direction:   model.DirectionDebit,
			Category:    to,
			Adjustment:  true,
		},
	}
}

func latestMonth(categorized []model.CategorizedTransaction) string {
	latest := ""
	for _, t := range categorized {
		if m := t.Month(); m != model.UnknownMonth && m > latest {
			latest = m
		}
	}
	return latest
}
