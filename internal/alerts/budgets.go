// Package alerts checks category spend against configured budgets.
package alerts

import (
	"math"
	"sort"
	"strings"

	"github.com/Veraticus/spice-lens/internal/model"
)

// CheckBudgets returns a breach for every category whose absolute spend exceeds
// its limit. Budget keys match categories case-insensitively. Breaches are
// sorted by overspend, largest first, then by category.
func CheckBudgets(summary model.Summary, budgets map[string]float64) []model.BudgetBreach {
	breaches := make([]model.BudgetBreach, 0)
	if len(budgets) == 0 {
		return breaches
	}

	limits := make(map[string]float64, len(budgets))
	for k, v := range budgets {
		limits[strings.ToLower(strings.TrimSpace(k))] = v
	}

	for category, total := range summary.ByCategory {
		limit, ok := limits[strings.ToLower(category)]
		if !ok || limit < 0 {
			continue
		}
		spent := math.Abs(total)
		if spent > limit {
			breaches = append(breaches, model.BudgetBreach{
				Category: category,
				Spent:    spent,
				Limit:    limit,
				Over:     spent - limit,
			})
		}
	}

	sort.Slice(breaches, func(i, j int) bool {
		if breaches[i].Over != breaches[j].Over {
			return breaches[i].Over > breaches[j].Over
		}
		return breaches[i].Category < breaches[j].Category
	})

	return breaches
}
