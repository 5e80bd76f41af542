package classification

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDetector(t *testing.T) {
	tests := []struct {
		name    string
		wantErr error
		rules   []Rule
	}{
		{
			name: "valid rules",
			rules: []Rule{
				{Category: "Dining", Keywords: []string{"cafe"}},
				{Category: "Shopping", Keywords: []string{"mall", "online shopping"}},
			},
		},
		{
			name:  "empty rules",
			rules: []Rule{},
		},
		{
			name:    "empty category",
			rules:   []Rule{{Category: "  ", Keywords: []string{"cafe"}}},
			wantErr: ErrEmptyCategory,
		},
		{
			name: "duplicate category",
			rules: []Rule{
				{Category: "Dining", Keywords: []string{"cafe"}},
				{Category: "Dining", Keywords: []string{"pizza"}},
			},
			wantErr: ErrDuplicateCategory,
		},
		{
			name:    "no keywords",
			rules:   []Rule{{Category: "Dining", Keywords: []string{" ", ""}}},
			wantErr: ErrNoKeywords,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDetector(tt.rules)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.rules), d.GetRuleCount())
		})
	}
}

func TestDetector_Classify(t *testing.T) {
	d := NewDefaultDetector()

	tests := []struct {
		name       string
		text       string
		category   string
		confidence float64
	}{
		{name: "suspicious wins over payments", text: "suspicious unknown upi payment", category: CategorySuspicious, confidence: 0.8},
		{name: "single dining hit", text: "coffee shop 1234", category: "Dining", confidence: 0.7},
		{name: "two dining hits", text: "pizza and burger combo", category: "Dining", confidence: 0.8},
		{name: "phrase keyword", text: "ride sharing to airport", category: "Transportation", confidence: 0.7},
		{name: "token not matched inside word", text: "shopify shop", category: CategoryOther, confidence: NoMatchConfidence},
		{name: "declaration order breaks ties", text: "cafe in the mall", category: "Dining", confidence: 0.7},
		{name: "no hits", text: "misc transfer", category: CategoryOther, confidence: NoMatchConfidence},
		{name: "empty text", text: "", category: CategoryOther, confidence: NoMatchConfidence},
		{name: "repeated keyword counts once", text: "coffee coffee coffee", category: "Dining", confidence: 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := d.Classify(tt.text)
			assert.Equal(t, tt.category, m.Category)
			assert.InDelta(t, tt.confidence, m.Confidence, 1e-9)
		})
	}
}

func TestDetector_ConfidenceCapped(t *testing.T) {
	d, err := NewDetector([]Rule{{Category: "Dining", Keywords: []string{"a", "b", "c", "d", "e", "f"}}})
	require.NoError(t, err)

	m := d.Classify("a b c d e f")
	assert.Equal(t, 6, m.Hits)
	assert.InDelta(t, 0.95, m.Confidence, 1e-9)
}

func TestDetector_Categories(t *testing.T) {
	d := NewDefaultDetector()
	assert.Equal(t, CategorySuspicious, d.Categories()[0])
	assert.Len(t, d.Categories(), d.GetRuleCount())

	travel, err := NewDetector([]Rule{{Category: "Travel", Keywords: []string{"flight"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Travel"}, travel.Categories())
	assert.Equal(t, "Travel", travel.Classify("indigo flight").Category)
}

func TestDetector_Fingerprint(t *testing.T) {
	a, err := NewDetector([]Rule{{Category: "Travel", Keywords: []string{"flight", "Train", "bus stand"}}})
	require.NoError(t, err)
	b, err := NewDetector([]Rule{{Category: "Travel", Keywords: []string{"bus  stand", "train", "flight"}}})
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "keyword order and spacing do not change the rule set")

	c, err := NewDetector([]Rule{{Category: "Travel", Keywords: []string{"flight"}}})
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())

	renamed, err := NewDetector([]Rule{{Category: "Trips", Keywords: []string{"flight"}}})
	require.NoError(t, err)
	assert.NotEqual(t, c.Fingerprint(), renamed.Fingerprint())

	assert.NotEqual(t, NewDefaultDetector().Fingerprint(), c.Fingerprint())
	assert.Equal(t, NewDefaultDetector().Fingerprint(), NewDefaultDetector().Fingerprint())
}

func TestFraudRuleScore(t *testing.T) {
	amt := func(v int64) decimal.NullDecimal {
		return decimal.NewNullDecimal(decimal.NewFromInt(v))
	}

	tests := []struct {
		name   string
		text   string
		amount decimal.NullDecimal
		want   float64
	}{
		{name: "plain small purchase", text: "coffee shop koramangala", amount: amt(250), want: 0},
		{name: "vague text", text: "transfer", amount: amt(100), want: 0.2},
		{name: "above 25k", text: "grocery bazaar order", amount: amt(30000), want: 0.1},
		{name: "above 50k accumulates", text: "grocery bazaar order", amount: amt(60000), want: 0.3},
		{name: "above 100k accumulates", text: "grocery bazaar order", amount: amt(150000), want: 0.7},
		{name: "above 200k clamps", text: "grocery bazaar order", amount: amt(250000), want: 1},
		{name: "negative uses absolute value", text: "grocery bazaar order", amount: amt(-60000), want: 0.3},
		{name: "one keyword", text: "unknown merchant charge", amount: amt(100), want: 0.5},
		{name: "two keywords", text: "suspicious unknown upi payment", amount: amt(25000), want: 0.8},
		{name: "repeated keyword counts once", text: "fraud fraud alert", amount: amt(100), want: 0.5},
		{name: "unknown amount", text: "grocery bazaar order", amount: decimal.NullDecimal{}, want: 0},
		{name: "everything clamps", text: "scam", amount: amt(300000), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FraudRuleScore(tt.text, tt.amount)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestRiskFactors(t *testing.T) {
	factors := RiskFactors("scam", decimal.NewNullDecimal(decimal.NewFromInt(75000)))
	assert.Equal(t, []string{FactorHighAmount, FactorSuspiciousKeywords, FactorVagueDescription}, factors)

	assert.Empty(t, RiskFactors("coffee shop koramangala", decimal.NewNullDecimal(decimal.NewFromInt(200))))
	assert.Equal(t, []string{FactorVagueDescription}, RiskFactors("", decimal.NullDecimal{}))
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	content := `rules:
  - category: Suspicious
    keywords: [scam, fraud]
  - category: Travel
    keywords:
      - flight
      - train ticket
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "Travel", rules[1].Category)

	d, err := NewDetector(rules)
	require.NoError(t, err)
	m := d.Classify("irctc train ticket")
	assert.Equal(t, "Travel", m.Category)
	assert.Equal(t, 1, m.Hits)

	_, err = LoadRules(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseRules([]byte("rules:\n  - category: Empty\n    keywords: []\n"))
	assert.ErrorIs(t, err, ErrNoKeywords)

	_, err = ParseRules([]byte("rules: [unterminated"))
	assert.Error(t, err)
}
