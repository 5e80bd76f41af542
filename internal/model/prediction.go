// Package model defines the core domain models used throughout the application.
package model

// FraudRiskLevel is the banded form of a fraud probability.
type FraudRiskLevel string

// Fraud risk levels, lowest to highest.
const (
	RiskLevelLow      FraudRiskLevel = "LOW"
	RiskLevelMedium   FraudRiskLevel = "MEDIUM"
	RiskLevelHigh     FraudRiskLevel = "HIGH"
	RiskLevelCritical FraudRiskLevel = "CRITICAL"
)

// Rank orders risk levels so callers can compare them.
func (l FraudRiskLevel) Rank() int {
	switch l {
	case RiskLevelCritical:
		return 3
	case RiskLevelHigh:
		return 2
	case RiskLevelMedium:
		return 1
	default:
		return 0
	}
}

// ModelVersion records which path produced a prediction.
type ModelVersion string

// Model version constants.
const (
	ModelVersionML       ModelVersion = "ml"
	ModelVersionFallback ModelVersion = "rule_based_fallback"
)

// Fraud banding thresholds. A probability must be strictly above a threshold to reach its band.
const (
	CriticalThreshold = 0.8
	HighThreshold     = 0.6
	MediumThreshold   = 0.4
	FraudThreshold    = 0.5
)

// BandFraudProbability maps a probability onto its risk level.
func BandFraudProbability(p float64) FraudRiskLevel {
	switch {
	case p > CriticalThreshold:
		return RiskLevelCritical
	case p > HighThreshold:
		return RiskLevelHigh
	case p > MediumThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// PredictionResult is the cascade's verdict for one transaction.
type PredictionResult struct {
	Category           string         `json:"category"`
	FraudRiskLevel     FraudRiskLevel `json:"fraud_risk_level"`
	ModelVersion       ModelVersion   `json:"model_version"`
	NormalizedText     string         `json:"normalized_text"`
	RiskFactors        []string       `json:"risk_factors,omitempty"`
	CategoryConfidence float64        `json:"category_confidence"`
	FraudProbability   float64        `json:"fraud_probability"`
	IsFraud            bool           `json:"is_fraud"`
}

// NewPredictionResult builds a result whose fraud flag and level both derive from p.
func NewPredictionResult(category string, confidence, p float64, version ModelVersion) PredictionResult {
	p = Clamp01(p)
	return PredictionResult{
		Category:           category,
		CategoryConfidence: Clamp01(confidence),
		FraudProbability:   p,
		FraudRiskLevel:     BandFraudProbability(p),
		IsFraud:            p > FraudThreshold,
		ModelVersion:       version,
	}
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// CategorizedTransaction pairs a transaction with its prediction.
type CategorizedTransaction struct {
	Prediction PredictionResult `json:"prediction"`
	Transaction
}

// ResolvedCategory returns the prediction's category, then the raw category, then "Unknown".
func (c CategorizedTransaction) ResolvedCategory() string {
	return ResolveCategory(c.Prediction.Category, c.Category)
}
