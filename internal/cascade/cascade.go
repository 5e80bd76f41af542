package cascade

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Veraticus/spice-lens/internal/cache"
	"github.com/Veraticus/spice-lens/internal/classification"
	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/metrics"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/Veraticus/spice-lens/internal/textnorm"
	"github.com/shopspring/decimal"
)

// Classification steps used as metric labels.
const (
	stepCategory = metrics.StepCategory
	stepFraud    = metrics.StepFraud
)

// errInvalidOutput marks a provider answer outside its documented range.
var errInvalidOutput = errors.New("provider returned invalid output")

// Cascade is the single source of truth for classifying a transaction.
// It holds no per-call state and is safe for concurrent use.
type Cascade struct {
	avail      Availability
	memo       Memo
	detector   *classification.Detector
	normalizer *textnorm.Normalizer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	progress   ProgressFunc
	scope      string
	threshold  float64
	timeout    time.Duration
	workers    int
}

// New builds a cascade around provider, which may implement CategoryModel,
// FraudModel, both, or neither. Capabilities are resolved once here.
func New(provider any, opts ...Option) *Cascade {
	c := &Cascade{
		avail:      Resolve(provider),
		detector:   classification.NewDefaultDetector(),
		normalizer: textnorm.New(textnorm.DefaultAliases),
		logger:     slog.Default(),
		threshold:  DefaultCategoryThreshold,
		timeout:    DefaultProviderTimeout,
		workers:    DefaultWorkers,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.scope = memoScope(c.avail, c.threshold, c.detector)

	c.logger.Debug("Classification cascade ready",
		"capabilities", c.avail.String(),
		"threshold", c.threshold,
		"memo", c.memo != nil)

	return c
}

// Availability returns the capabilities resolved at construction.
func (c *Cascade) Availability() Availability {
	return c.avail
}

// Normalize exposes the cascade's text normalizer.
func (c *Cascade) Normalize(text string) string {
	return c.normalizer.Normalize(text)
}

// Classify returns the prediction for one description and optional amount.
// It never fails: provider problems route into the keyword and rule fallbacks.
func (c *Cascade) Classify(ctx context.Context, text string, amount decimal.NullDecimal) model.PredictionResult {
	normalized := c.normalizer.Normalize(text)
	key := cache.Key(c.scope, normalized, amount)

	if c.memo != nil {
		if result, ok := c.memo.Get(ctx, key); ok {
			c.metrics.MemoLookup(true)
			c.metrics.Decision(stepCategory, metrics.PathMemo)
			return result
		}
		c.metrics.MemoLookup(false)
	}

	category, confidence, categoryLive, categoryFault := c.categorize(ctx, normalized)
	probability, fraudLive, fraudFault := c.scoreFraud(ctx, normalized, amount)

	version := model.ModelVersionFallback
	if categoryLive && fraudLive {
		version = model.ModelVersionML
	}

	result := model.NewPredictionResult(category, confidence, probability, version)
	result.NormalizedText = normalized
	result.RiskFactors = classification.RiskFactors(normalized, amount)
	c.metrics.RiskLevel(string(result.FraudRiskLevel))

	// A faulted call may succeed next time, so its fallback answer is not kept.
	if c.memo != nil && !categoryFault && !fraudFault {
		c.memo.Set(ctx, key, result)
	}

	return result
}

// memoScope hashes everything besides text and amount that shapes a result,
// so cascades configured differently never read each other's memo entries.
func memoScope(avail Availability, threshold float64, detector *classification.Detector) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%T|%T|%g|%s", avail.String(), avail.Category, avail.Fraud, threshold, detector.Fingerprint())
	return hex.EncodeToString(h.Sum(nil))[:12]
}

// categorize runs the category step. live reports that the model's label was
// accepted; fault reports that the model was present but unusable for this call.
func (c *Cascade) categorize(ctx context.Context, normalized string) (label string, confidence float64, live, fault bool) {
	if c.avail.HasCategory() {
		got, err := callWithTimeout(ctx, c.timeout, func(ctx context.Context) (categoryAnswer, error) {
			l, cf, err := c.avail.Category.Categorize(ctx, normalized)
			return categoryAnswer{label: l, confidence: cf}, err
		})
		if err == nil && !validUnit(got.confidence) {
			err = fmt.Errorf("%w: confidence %v", errInvalidOutput, got.confidence)
		}

		switch {
		case err != nil:
			fault = true
			c.recordFault(stepCategory, err)
		case got.confidence > c.threshold && got.label != "" && got.label != classification.CategoryOther:
			c.metrics.Decision(stepCategory, metrics.PathModel)
			return got.label, got.confidence, true, false
		default:
			c.logger.Debug("Model label below threshold, using keyword rules",
				"label", got.label,
				"confidence", got.confidence)
		}
	}

	m := c.detector.Classify(normalized)
	c.metrics.Decision(stepCategory, metrics.PathFallback)
	return m.Category, m.Confidence, false, fault
}

// scoreFraud runs the fraud step. The model is only consulted when the amount is known.
func (c *Cascade) scoreFraud(ctx context.Context, normalized string, amount decimal.NullDecimal) (probability float64, live, fault bool) {
	if c.avail.HasFraud() && amount.Valid {
		p, err := callWithTimeout(ctx, c.timeout, func(ctx context.Context) (float64, error) {
			return c.avail.Fraud.ScoreFraud(ctx, normalized, amount)
		})
		if err == nil && !validUnit(p) {
			err = fmt.Errorf("%w: probability %v", errInvalidOutput, p)
		}
		if err == nil {
			c.metrics.Decision(stepFraud, metrics.PathModel)
			return p, true, false
		}
		fault = true
		c.recordFault(stepFraud, err)
	}

	c.metrics.Decision(stepFraud, metrics.PathFallback)
	return classification.FraudRuleScore(normalized, amount), false, fault
}

func (c *Cascade) recordFault(step string, err error) {
	reason := metrics.FaultError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = metrics.FaultTimeout
	case errors.Is(err, errInvalidOutput):
		reason = metrics.FaultInvalid
	}
	c.metrics.ProviderFault(step, reason)
	c.logger.Debug("Classifier provider unavailable, falling back",
		"step", step,
		"reason", reason,
		"error", fmt.Errorf("%w: %w", common.ErrProviderUnavailable, err))
}

type categoryAnswer struct {
	label      string
	confidence float64
}

// callWithTimeout runs fn with a deadline and returns as soon as either fn
// finishes or the deadline passes. Panics inside fn are converted to errors.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type reply struct {
		value T
		err   error
	}
	done := make(chan reply, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- reply{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func validUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
