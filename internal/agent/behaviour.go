package agent

import (
	"sort"

	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/shopspring/decimal"
)

// Behaviour thresholds.
const (
	DefaultTrendLimit = 10

	impulsiveShare   = 0.3
	impulsiveScore   = 0.7
	impulsiveCutoff  = 0.5
	socialShare      = 0.25
	topCategoryCount = 3
	categoryShopping = "Shopping"
	categoryDining   = "Dining"
)

// BehaviourAgent infers spender profiles and month-by-category trends.
type BehaviourAgent struct {
	trendLimit int
}

// NewBehaviourAgent creates a behaviour agent. A non-positive limit uses the default.
func NewBehaviourAgent(trendLimit int) *BehaviourAgent {
	if trendLimit <= 0 {
		trendLimit = DefaultTrendLimit
	}
	return &BehaviourAgent{trendLimit: trendLimit}
}

// InferProfile classifies the spender from category shares of spend.
func (a *BehaviourAgent) InferProfile(txns []model.CategorizedTransaction) model.Profile {
	if len(txns) == 0 {
		return model.Profile{Profile: model.ProfileUnknown, TopCategories: []string{}}
	}

	sums := newOrderedSums()
	total := decimal.Zero
	for _, t := range txns {
		spend, ok := spendOf(t.Transaction)
		if !ok {
			continue
		}
		sums.add(t.ResolvedCategory(), spend)
		total = total.Add(spend)
	}

	share := func(category string) float64 {
		if !total.IsPositive() {
			return 0
		}
		v, ok := sums.totals[category]
		if !ok {
			return 0
		}
		return v.Div(total).InexactFloat64()
	}

	profile := model.Profile{
		Profile:       model.ProfileBudgetConscious,
		TopCategories: topCategories(sums, topCategoryCount),
	}
	if share(categoryShopping) > impulsiveShare {
		profile.ImpulsiveScore = impulsiveScore
	}

	switch {
	case profile.ImpulsiveScore > impulsiveCutoff:
		profile.Profile = model.ProfileImpulsive
	case share(categoryDining) > socialShare:
		profile.Profile = model.ProfileSocialSpender
	}

	return profile
}

// topCategories returns up to n keys by descending total, first-seen order on ties.
func topCategories(sums *orderedSums, n int) []string {
	keys := append([]string(nil), sums.order...)
	sort.SliceStable(keys, func(i, j int) bool {
		return sums.totals[keys[i]].GreaterThan(sums.totals[keys[j]])
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// DetectTrends groups spend by (month, category) in first-seen order
// and returns a bounded preview of the series.
func (a *BehaviourAgent) DetectTrends(txns []model.CategorizedTransaction) model.TrendSample {
	type pair struct{ month, category string }

	totals := make(map[pair]decimal.Decimal)
	var order []pair
	for _, t := range txns {
		spend, ok := spendOf(t.Transaction)
		if !ok {
			continue
		}
		key := pair{month: t.Month(), category: t.ResolvedCategory()}
		cur, seen := totals[key]
		if !seen {
			order = append(order, key)
		}
		totals[key] = cur.Add(spend)
	}

	sample := model.TrendSample{
		Entries:   make([]model.TrendEntry, 0, min(len(order), a.trendLimit)),
		Limit:     a.trendLimit,
		Truncated: len(order) > a.trendLimit,
	}
	for i, key := range order {
		if i == a.trendLimit {
			break
		}
		sample.Entries = append(sample.Entries, model.TrendEntry{
			Month:    key.month,
			Category: key.category,
			Amount:   totals[key].InexactFloat64(),
		})
	}
	return sample
}
