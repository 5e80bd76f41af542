package cascade

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MockCategoryModel is a test CategoryModel that labels text by substring.
type MockCategoryModel struct {
	Err        error
	Labels     map[string]string
	Default    string
	Delay      time.Duration
	Confidence float64
	calls      int
	mu         sync.Mutex
}

// Categorize returns the label of the first key contained in normalized,
// or Default when nothing matches.
func (m *MockCategoryModel) Categorize(ctx context.Context, normalized string) (string, float64, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if err := wait(ctx, m.Delay); err != nil {
		return "", 0, err
	}
	if m.Err != nil {
		return "", 0, m.Err
	}

	for substr, label := range m.Labels {
		if strings.Contains(normalized, substr) {
			return label, m.Confidence, nil
		}
	}
	return m.Default, m.Confidence, nil
}

// Calls returns the number of Categorize calls.
func (m *MockCategoryModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockFraudModel is a test FraudModel returning a fixed probability.
type MockFraudModel struct {
	Err         error
	Delay       time.Duration
	Probability float64
	calls       int
	mu          sync.Mutex
}

// ScoreFraud returns Probability, or Err when set.
func (m *MockFraudModel) ScoreFraud(ctx context.Context, _ string, _ decimal.NullDecimal) (float64, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if err := wait(ctx, m.Delay); err != nil {
		return 0, err
	}
	if m.Err != nil {
		return 0, m.Err
	}
	return m.Probability, nil
}

// Calls returns the number of ScoreFraud calls.
func (m *MockFraudModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockProvider implements both capabilities.
type MockProvider struct {
	*MockCategoryModel
	*MockFraudModel
}

// NewMockProvider creates a provider with both capabilities.
func NewMockProvider(labels map[string]string, confidence, probability float64) *MockProvider {
	return &MockProvider{
		MockCategoryModel: &MockCategoryModel{Labels: labels, Default: "Other", Confidence: confidence},
		MockFraudModel:    &MockFraudModel{Probability: probability},
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
