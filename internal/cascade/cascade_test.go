package cascade

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/spice-lens/internal/cache"
	"github.com/Veraticus/spice-lens/internal/classification"
	"github.com/Veraticus/spice-lens/internal/metrics"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "none", Resolve(nil).String())
	assert.Equal(t, "none", Resolve("not a model").String())
	assert.Equal(t, "category", Resolve(&MockCategoryModel{}).String())
	assert.Equal(t, "fraud", Resolve(&MockFraudModel{}).String())
	assert.Equal(t, "category+fraud", Resolve(NewMockProvider(nil, 0.9, 0.1)).String())
}

func TestClassify_NoProvider(t *testing.T) {
	c := New(nil)

	t.Run("suspicious upi payment", func(t *testing.T) {
		r := c.Classify(context.Background(), "Suspicious unknown UPI payment", amount(25000))

		assert.Equal(t, classification.CategorySuspicious, r.Category)
		assert.GreaterOrEqual(t, r.FraudRiskLevel.Rank(), model.RiskLevelHigh.Rank())
		assert.True(t, r.IsFraud)
		assert.Equal(t, model.ModelVersionFallback, r.ModelVersion)
		assert.Equal(t, "suspicious unknown upi payment", r.NormalizedText)
		assert.Contains(t, r.RiskFactors, classification.FactorSuspiciousKeywords)
	})

	t.Run("alias feeds keyword rules", func(t *testing.T) {
		r := c.Classify(context.Background(), "STARBUCKS #221 Indiranagar", amount(350))

		assert.Equal(t, "Dining", r.Category)
		assert.InDelta(t, 0.7, r.CategoryConfidence, 1e-9)
		assert.Equal(t, model.RiskLevelLow, r.FraudRiskLevel)
		assert.False(t, r.IsFraud)
	})

	t.Run("unknown amount", func(t *testing.T) {
		r := c.Classify(context.Background(), "monthly gym membership", decimal.NullDecimal{})

		assert.Equal(t, classification.CategoryOther, r.Category)
		assert.InDelta(t, 0.5, r.CategoryConfidence, 1e-9)
		assert.InDelta(t, 0, r.FraudProbability, 1e-9)
	})

	t.Run("empty text", func(t *testing.T) {
		r := c.Classify(context.Background(), "", amount(10))

		assert.Equal(t, classification.CategoryOther, r.Category)
		assert.Equal(t, "", r.NormalizedText)
		assert.InDelta(t, 0.2, r.FraudProbability, 1e-9)
	})
}

func TestClassify_ConfidenceGate(t *testing.T) {
	tests := []struct {
		name        string
		label       string
		wantCat     string
		wantVersion model.ModelVersion
		confidence  float64
	}{
		{name: "accepted", label: "Travel", confidence: 0.9, wantCat: "Travel", wantVersion: model.ModelVersionML},
		{name: "at threshold is rejected", label: "Travel", confidence: 0.6, wantCat: "Dining", wantVersion: model.ModelVersionFallback},
		{name: "low confidence", label: "Travel", confidence: 0.3, wantCat: "Dining", wantVersion: model.ModelVersionFallback},
		{name: "other is rejected", label: "Other", confidence: 0.99, wantCat: "Dining", wantVersion: model.ModelVersionFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &MockProvider{
				MockCategoryModel: &MockCategoryModel{Default: tt.label, Confidence: tt.confidence},
				MockFraudModel:    &MockFraudModel{Probability: 0.05},
			}
			c := New(provider)

			r := c.Classify(context.Background(), "cafe coffee day", amount(200))
			assert.Equal(t, tt.wantCat, r.Category)
			assert.Equal(t, tt.wantVersion, r.ModelVersion)
			assert.InDelta(t, 0.05, r.FraudProbability, 1e-9)
		})
	}
}

func TestClassify_ThresholdOption(t *testing.T) {
	provider := &MockCategoryModel{Default: "Travel", Confidence: 0.5}

	strict := New(provider)
	assert.Equal(t, "Dining", strict.Classify(context.Background(), "cafe", amount(1)).Category)

	lenient := New(provider, WithThreshold(0.4))
	assert.Equal(t, "Travel", lenient.Classify(context.Background(), "cafe", amount(1)).Category)
}

func TestClassify_PartialCapabilities(t *testing.T) {
	t.Run("category only", func(t *testing.T) {
		c := New(&MockCategoryModel{Default: "Travel", Confidence: 0.9})
		r := c.Classify(context.Background(), "indigo flight booking", amount(250000))

		assert.Equal(t, "Travel", r.Category)
		assert.Equal(t, model.ModelVersionFallback, r.ModelVersion, "fraud came from rules")
		assert.Equal(t, model.RiskLevelCritical, r.FraudRiskLevel)
	})

	t.Run("fraud only", func(t *testing.T) {
		fraud := &MockFraudModel{Probability: 0.65}
		c := New(fraud)
		r := c.Classify(context.Background(), "grocery bazaar order", amount(500))

		assert.Equal(t, "Groceries", r.Category)
		assert.Equal(t, model.RiskLevelHigh, r.FraudRiskLevel)
		assert.Equal(t, model.ModelVersionFallback, r.ModelVersion)
	})

	t.Run("fraud model skipped without amount", func(t *testing.T) {
		fraud := &MockFraudModel{Probability: 0.99}
		c := New(fraud)
		r := c.Classify(context.Background(), "grocery bazaar order", decimal.NullDecimal{})

		assert.Equal(t, 0, fraud.Calls())
		assert.InDelta(t, 0, r.FraudProbability, 1e-9)
	})
}

func TestClassify_ProviderFaults(t *testing.T) {
	tests := []struct {
		provider any
		name     string
		reason   string
		step     string
	}{
		{
			name:     "category error",
			provider: &MockCategoryModel{Err: errors.New("model not loaded")},
			step:     "category",
			reason:   metrics.FaultError,
		},
		{
			name:     "category NaN",
			provider: &MockCategoryModel{Default: "Travel", Confidence: math.NaN()},
			step:     "category",
			reason:   metrics.FaultInvalid,
		},
		{
			name:     "category out of range",
			provider: &MockCategoryModel{Default: "Travel", Confidence: 1.7},
			step:     "category",
			reason:   metrics.FaultInvalid,
		},
		{
			name:     "fraud negative",
			provider: &MockFraudModel{Probability: -0.2},
			step:     "fraud",
			reason:   metrics.FaultInvalid,
		},
		{
			name:     "fraud timeout",
			provider: &MockFraudModel{Probability: 0.9, Delay: time.Second},
			step:     "fraud",
			reason:   metrics.FaultTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			m, err := metrics.New(reg)
			require.NoError(t, err)

			c := New(tt.provider, WithMetrics(m), WithTimeout(20*time.Millisecond))
			r := c.Classify(context.Background(), "cafe coffee day", amount(100))

			assert.Equal(t, "Dining", r.Category)
			assert.Equal(t, model.ModelVersionFallback, r.ModelVersion)
			assert.InDelta(t, 0, r.FraudProbability, 1e-9)

			count, err := testutil.GatherAndCount(reg, "lens_cascade_provider_faults_total")
			require.NoError(t, err)
			assert.Equal(t, 1, count)

			expected := fmt.Sprintf(`
# HELP lens_cascade_provider_faults_total Classifier provider calls that were treated as unavailable.
# TYPE lens_cascade_provider_faults_total counter
lens_cascade_provider_faults_total{reason=%q,step=%q} 1
`, tt.reason, tt.step)
			assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "lens_cascade_provider_faults_total"))
		})
	}
}

type panickingModel struct{}

func (panickingModel) Categorize(context.Context, string) (string, float64, error) {
	panic("index out of range")
}

func TestClassify_ProviderPanic(t *testing.T) {
	c := New(panickingModel{})
	var r model.PredictionResult
	assert.NotPanics(t, func() {
		r = c.Classify(context.Background(), "cafe", amount(1))
	})
	assert.Equal(t, "Dining", r.Category)
}

type countingMemo struct {
	*cache.MemoryCache
	sets int
	mu   sync.Mutex
}

func (m *countingMemo) Set(ctx context.Context, key string, r model.PredictionResult) {
	m.mu.Lock()
	m.sets++
	m.mu.Unlock()
	m.MemoryCache.Set(ctx, key, r)
}

func TestClassify_Memo(t *testing.T) {
	t.Run("hit skips provider", func(t *testing.T) {
		memo := &countingMemo{MemoryCache: cache.NewMemoryCache(time.Minute)}
		defer memo.Close()

		provider := NewMockProvider(map[string]string{"flight": "Travel"}, 0.9, 0.1)
		c := New(provider, WithMemo(memo))

		first := c.Classify(context.Background(), "Indigo Flight", amount(4000))
		second := c.Classify(context.Background(), "INDIGO flight!", amount(4000))

		assert.Equal(t, first, second)
		assert.Equal(t, 1, provider.MockCategoryModel.Calls())
		assert.Equal(t, 1, memo.sets)
	})

	t.Run("amount is part of the key", func(t *testing.T) {
		memo := cache.NewMemoryCache(time.Minute)
		defer memo.Close()

		c := New(nil, WithMemo(memo))
		small := c.Classify(context.Background(), "grocery bazaar order", amount(100))
		large := c.Classify(context.Background(), "grocery bazaar order", amount(300000))

		assert.NotEqual(t, small.FraudRiskLevel, large.FraudRiskLevel)
		assert.Equal(t, 2, memo.Size())
	})

	t.Run("different rules never share entries", func(t *testing.T) {
		memo := cache.NewMemoryCache(time.Minute)
		defer memo.Close()

		travel, err := classification.NewDetector([]classification.Rule{{Category: "Travel", Keywords: []string{"flight"}}})
		require.NoError(t, err)

		defaults := New(nil, WithMemo(memo))
		custom := New(nil, WithMemo(memo), WithDetector(travel))
		uncached := New(nil, WithDetector(travel))

		first := defaults.Classify(context.Background(), "indigo flight", amount(4000))
		second := custom.Classify(context.Background(), "indigo flight", amount(4000))

		assert.Equal(t, classification.CategoryOther, first.Category)
		assert.Equal(t, "Travel", second.Category)
		assert.Equal(t, uncached.Classify(context.Background(), "indigo flight", amount(4000)), second)
		assert.Equal(t, 2, memo.Size())
	})

	t.Run("threshold and provider are part of the scope", func(t *testing.T) {
		memo := cache.NewMemoryCache(time.Minute)
		defer memo.Close()

		provider := NewMockProvider(map[string]string{"flight": "Travel"}, 0.7, 0.1)
		lenient := New(provider, WithMemo(memo))
		strict := New(provider, WithMemo(memo), WithThreshold(0.8))
		rulesOnly := New(nil, WithMemo(memo))

		assert.Equal(t, "Travel", lenient.Classify(context.Background(), "indigo flight", amount(4000)).Category)
		assert.Equal(t, classification.CategoryOther, strict.Classify(context.Background(), "indigo flight", amount(4000)).Category)
		assert.Equal(t, model.ModelVersionFallback, rulesOnly.Classify(context.Background(), "indigo flight", amount(4000)).ModelVersion)
		assert.Equal(t, 3, memo.Size())
	})

	t.Run("faulted results are not memoized", func(t *testing.T) {
		memo := &countingMemo{MemoryCache: cache.NewMemoryCache(time.Minute)}
		defer memo.Close()

		provider := &MockCategoryModel{Err: errors.New("connection reset")}
		c := New(provider, WithMemo(memo))

		c.Classify(context.Background(), "cafe", amount(1))
		c.Classify(context.Background(), "cafe", amount(1))

		assert.Equal(t, 0, memo.sets)
		assert.Equal(t, 2, provider.Calls())
	})
}

func TestClassifyBatch(t *testing.T) {
	txns := make([]model.Transaction, 0, 50)
	for i := 0; i < 50; i++ {
		desc := "cafe coffee day"
		if i%3 == 0 {
			desc = "grocery bazaar order"
		}
		txns = append(txns, model.Transaction{
			ID:          fmt.Sprintf("t%d", i),
			Description: desc,
			Amount:      decimal.NewFromInt(int64(100 + i)),
		})
	}

	var progressCalls int
	c := New(nil, WithWorkers(8), WithProgress(func(done, total int) {
		progressCalls++
		assert.Equal(t, len(txns), total)
	}))

	results := c.ClassifyBatch(context.Background(), txns)
	require.Len(t, results, len(txns))
	assert.Equal(t, len(txns), progressCalls)

	for i, r := range results {
		want := c.Classify(context.Background(), txns[i].Description, decimal.NewNullDecimal(txns[i].Amount))
		assert.Equal(t, want, r, "index %d", i)
	}

	assert.Empty(t, c.ClassifyBatch(context.Background(), nil))
}

func TestClassify_Concurrent(t *testing.T) {
	memo := cache.NewMemoryCache(time.Minute)
	defer memo.Close()
	c := New(NewMockProvider(map[string]string{"cafe": "Dining"}, 0.8, 0.2), WithMemo(memo))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := c.Classify(context.Background(), "cafe", amount(10))
			assert.Equal(t, "Dining", r.Category)
		}()
	}
	wg.Wait()
}
