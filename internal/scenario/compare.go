package scenario

import (
	"sort"

	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/shopspring/decimal"
)

// Compare summarizes how whatIf differs from baseline.
func Compare(baseline, whatIf model.AggregateReport) model.Comparison {
	cmp := model.Comparison{
		BaselineRisk:      baseline.Risk.Risk,
		WhatIfRisk:        whatIf.Risk.Risk,
		BaselineProfile:   baseline.Profile.Profile,
		WhatIfProfile:     whatIf.Profile.Profile,
		TotalDelta:        delta(baseline.Summary.TotalSpent, whatIf.Summary.TotalSpent),
		ForecastDelta:     delta(firstForecast(baseline), firstForecast(whatIf)),
		StressDelta:       delta(baseline.StressScore, whatIf.StressScore),
		AnomalyCountDelta: len(whatIf.Anomalies) - len(baseline.Anomalies),
		Categories:        make([]model.CategoryDelta, 0),
	}

	names := make(map[string]struct{})
	for k := range baseline.Summary.ByCategory {
		names[k] = struct{}{}
	}
	for k := range whatIf.Summary.ByCategory {
		names[k] = struct{}{}
	}

	sorted := make([]string, 0, len(names))
	for k := range names {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, name := range sorted {
		before := baseline.Summary.ByCategory[name]
		after := whatIf.Summary.ByCategory[name]
		cmp.Categories = append(cmp.Categories, model.CategoryDelta{
			Category: name,
			Baseline: before,
			WhatIf:   after,
			Delta:    delta(before, after),
		})
	}

	return cmp
}

func firstForecast(r model.AggregateReport) float64 {
	if len(r.Forecast) == 0 {
		return 0
	}
	return r.Forecast[0].PredictedSpending
}

// delta subtracts in decimal so unchanged values compare as exactly zero.
func delta(before, after float64) float64 {
	return decimal.NewFromFloat(after).Sub(decimal.NewFromFloat(before)).InexactFloat64()
}
