package classification

import (
	"strings"

	"github.com/Veraticus/spice-lens/internal/textnorm"
	"github.com/shopspring/decimal"
)

// Risk factor labels.
const (
	FactorHighAmount         = "High amount"
	FactorSuspiciousKeywords = "Suspicious keywords"
	FactorVagueDescription   = "Vague description"
)

// amountBand adds weight when |amount| is strictly above floor.
type amountBand struct {
	floor  decimal.Decimal
	weight float64
}

// Bands accumulate: an amount above 200k collects every band below it as well.
var amountBands = []amountBand{
	{floor: decimal.NewFromInt(200000), weight: 0.6},
	{floor: decimal.NewFromInt(100000), weight: 0.4},
	{floor: decimal.NewFromInt(50000), weight: 0.2},
	{floor: decimal.NewFromInt(25000), weight: 0.1},
}

var (
	highAmountFloor = decimal.NewFromInt(50000)
	suspiciousSet   = toSet(SuspiciousKeywords)
	minDescriptive  = 3
	singleHitWeight = 0.5
	multiHitWeight  = 0.8
	vagueTextWeight = 0.2
)

// SuspiciousHits counts distinct suspicious words in normalized text.
func SuspiciousHits(normalized string) int {
	found := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		if _, ok := suspiciousSet[w]; ok {
			found[w] = struct{}{}
		}
	}
	return len(found)
}

// FraudRuleScore computes the cumulative rule-based fraud probability in [0, 1].
// An unknown amount contributes nothing.
func FraudRuleScore(normalized string, amount decimal.NullDecimal) float64 {
	score := 0.0

	if amount.Valid {
		abs := amount.Decimal.Abs()
		for _, band := range amountBands {
			if abs.GreaterThan(band.floor) {
				score += band.weight
			}
		}
	}

	switch hits := SuspiciousHits(normalized); {
	case hits >= 2:
		score += multiHitWeight
	case hits == 1:
		score += singleHitWeight
	}

	if textnorm.WordCount(normalized) < minDescriptive {
		score += vagueTextWeight
	}

	if score > 1 {
		return 1
	}
	return score
}

// RiskFactors lists the human-readable reasons behind a fraud score.
func RiskFactors(normalized string, amount decimal.NullDecimal) []string {
	var factors []string
	if amount.Valid && amount.Decimal.Abs().GreaterThan(highAmountFloor) {
		factors = append(factors, FactorHighAmount)
	}
	if SuspiciousHits(normalized) > 0 {
		factors = append(factors, FactorSuspiciousKeywords)
	}
	if textnorm.WordCount(normalized) < minDescriptive {
		factors = append(factors, FactorVagueDescription)
	}
	return factors
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
