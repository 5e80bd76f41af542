package model

// RiskRating is the cash-flow gap rating produced by the risk agent.
type RiskRating string

// Risk ratings.
const (
	RiskLow    RiskRating = "low"
	RiskMedium RiskRating = "medium"
	RiskHigh   RiskRating = "high"
)

// Behaviour profiles.
const (
	ProfileUnknown         = "Unknown"
	ProfileImpulsive       = "Impulsive"
	ProfileSocialSpender   = "Social Spender"
	ProfileBudgetConscious = "Budget-conscious"
)

// Summary is the per-category spend total for a batch.
type Summary struct {
	ByCategory map[string]float64 `json:"by_category"`
	TotalSpent float64            `json:"total_spent"`
}

// ForecastPoint is the projected spend for one future month.
type ForecastPoint struct {
	MonthOffset       int     `json:"month_offset"`
	PredictedSpending float64 `json:"predicted_spending"`
}

// Anomaly is a categorized transaction flagged by the z-score rule.
type Anomaly struct {
	CategorizedTransaction
	ZScore float64 `json:"z_score"`
}

// RiskAssessment is the result of the cash-flow gap check.
type RiskAssessment struct {
	Risk        RiskRating `json:"risk"`
	Reason      string     `json:"reason"`
	TotalIncome float64    `json:"total_income"`
	AvgExpense  float64    `json:"avg_expense"`
}

// Profile describes the inferred spender type.
type Profile struct {
	Profile        string   `json:"profile"`
	TopCategories  []string `json:"top_categories"`
	ImpulsiveScore float64  `json:"impulsive_score"`
}

// TrendEntry is the absolute spend for one (month, category) pair.
type TrendEntry struct {
	Month    string  `json:"month"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// TrendSample is a bounded preview of the (month, category) series in first-seen order.
type TrendSample struct {
	Entries   []TrendEntry `json:"entries"`
	Limit     int          `json:"limit"`
	Truncated bool         `json:"truncated"`
}

// MonthlyCashFlow is the income and expense position for one month.
type MonthlyCashFlow struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Savings float64 `json:"savings"`
}

// FraudSummary counts the transactions flagged as fraud in a batch.
type FraudSummary struct {
	Flagged    int     `json:"flagged"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// BudgetBreach records a category whose spend exceeded its configured limit.
type BudgetBreach struct {
	Category string  `json:"category"`
	Spent    float64 `json:"spent"`
	Limit    float64 `json:"limit"`
	Over     float64 `json:"over"`
}

// AggregateReport bundles every analysis for one transaction batch.
type AggregateReport struct {
	Summary                 Summary                  `json:"summary"`
	Risk                    RiskAssessment           `json:"risk"`
	Profile                 Profile                  `json:"profile"`
	Trends                  TrendSample              `json:"trends"`
	Forecast                []ForecastPoint          `json:"forecast"`
	Anomalies               []Anomaly                `json:"anomalies"`
	CashFlow                []MonthlyCashFlow        `json:"cash_flow"`
	BudgetAlerts            []BudgetBreach           `json:"budget_alerts"`
	CategorizedTransactions []CategorizedTransaction `json:"categorized_transactions"`
	Fraud                   FraudSummary             `json:"fraud"`
	StressScore             float64                  `json:"stress_score"`
}
