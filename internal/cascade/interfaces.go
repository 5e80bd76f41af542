// Package cascade decides what a transaction is: its category, its fraud
// probability and the risk band derived from it. A trained classifier is used
// when one is available and trustworthy; keyword rules answer otherwise.
package cascade

import (
	"context"

	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/shopspring/decimal"
)

// CategoryModel predicts a category label for normalized text.
type CategoryModel interface {
	Categorize(ctx context.Context, normalized string) (label string, confidence float64, err error)
}

// FraudModel predicts the probability that a transaction is fraudulent.
type FraudModel interface {
	ScoreFraud(ctx context.Context, normalized string, amount decimal.NullDecimal) (float64, error)
}

// Memo caches prediction results by key. Implementations must be safe for concurrent use.
type Memo interface {
	Get(ctx context.Context, key string) (model.PredictionResult, bool)
	Set(ctx context.Context, key string, result model.PredictionResult)
}

// Availability records which provider capabilities were present at construction.
type Availability struct {
	Category CategoryModel
	Fraud    FraudModel
}

// Resolve inspects provider once for the capabilities it implements.
// A nil provider yields an empty Availability.
func Resolve(provider any) Availability {
	var a Availability
	if provider == nil {
		return a
	}
	if cm, ok := provider.(CategoryModel); ok {
		a.Category = cm
	}
	if fm, ok := provider.(FraudModel); ok {
		a.Fraud = fm
	}
	return a
}

// HasCategory reports whether a category model is present.
func (a Availability) HasCategory() bool { return a.Category != nil }

// HasFraud reports whether a fraud model is present.
func (a Availability) HasFraud() bool { return a.Fraud != nil }

// String describes the resolved capabilities.
func (a Availability) String() string {
	switch {
	case a.HasCategory() && a.HasFraud():
		return "category+fraud"
	case a.HasCategory():
		return "category"
	case a.HasFraud():
		return "fraud"
	default:
		return "none"
	}
}
