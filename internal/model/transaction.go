package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction indicates which way money moved in a transaction.
type Direction string

// Direction constants.
const (
	DirectionCredit      Direction = "credit"
	DirectionDebit       Direction = "debit"
	DirectionUnspecified Direction = "unspecified"
)

// UnknownMonth is the bucket for transactions without a usable date.
const UnknownMonth = "unknown"

// UnknownCategory is used when neither a prediction nor a source category exists.
const UnknownCategory = "Unknown"

// ParseDirection maps free-form direction/type values onto a Direction.
func ParseDirection(s string) Direction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "credit", "cr", "income", "deposit":
		return DirectionCredit
	case "debit", "dr", "expense", "withdrawal", "payment":
		return DirectionDebit
	default:
		return DirectionUnspecified
	}
}

// Transaction represents a single financial transaction handed to the analysis core.
type Transaction struct {
	Amount      decimal.Decimal `json:"amount"`
	ID          string          `json:"id,omitempty"`
	Description string          `json:"description"`
	Currency    string          `json:"currency,omitempty"`
	Date        string          `json:"date,omitempty"` // ISO YYYY-MM-DD, empty when unknown
	Direction   Direction       `json:"direction"`
	Category    string          `json:"category,omitempty"` // Category hint from the source

	// Adjustment marks a synthetic scenario row whose category is pinned to Category.
	Adjustment bool `json:"adjustment,omitempty"`
}

// Month returns the YYYY-MM bucket for the transaction, or UnknownMonth.
func (t Transaction) Month() string {
	if len(t.Date) < 7 {
		return UnknownMonth
	}
	prefix := t.Date[:7]
	if _, err := time.Parse("2006-01", prefix); err != nil {
		return UnknownMonth
	}
	return prefix
}

// AmountFloat returns the amount as a float64 for statistics.
func (t Transaction) AmountFloat() float64 {
	return t.Amount.InexactFloat64()
}

// CloneTransactions returns a copy of the slice that shares no backing array with the input.
func CloneTransactions(txns []Transaction) []Transaction {
	out := make([]Transaction, len(txns))
	copy(out, txns)
	return out
}

// ResolveCategory picks the predicted category, then the raw category, then UnknownCategory.
func ResolveCategory(predicted, raw string) string {
	if predicted != "" {
		return predicted
	}
	if raw != "" {
		return raw
	}
	return UnknownCategory
}
