package cascade

import (
	"log/slog"
	"time"

	"github.com/Veraticus/spice-lens/internal/classification"
	"github.com/Veraticus/spice-lens/internal/metrics"
	"github.com/Veraticus/spice-lens/internal/textnorm"
)

// Defaults for cascade configuration.
const (
	DefaultCategoryThreshold = 0.6
	DefaultWorkers           = 4
	DefaultProviderTimeout   = 2 * time.Second
)

// ProgressFunc is called after each transaction in a batch completes.
type ProgressFunc func(done, total int)

// Option configures a Cascade.
type Option func(*Cascade)

// WithMemo enables memoization through m.
func WithMemo(m Memo) Option {
	return func(c *Cascade) {
		c.memo = m
	}
}

// WithThreshold sets the minimum model confidence (exclusive) for accepting a label.
func WithThreshold(threshold float64) Option {
	return func(c *Cascade) {
		c.threshold = threshold
	}
}

// WithTimeout sets the per-call provider timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Cascade) {
		c.timeout = timeout
	}
}

// WithWorkers sets the batch worker count.
func WithWorkers(n int) Option {
	return func(c *Cascade) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cascade) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records decisions and faults in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cascade) {
		c.metrics = m
	}
}

// WithDetector replaces the keyword fallback rules.
func WithDetector(d *classification.Detector) Option {
	return func(c *Cascade) {
		if d != nil {
			c.detector = d
		}
	}
}

// WithNormalizer replaces the text normalizer.
func WithNormalizer(n *textnorm.Normalizer) Option {
	return func(c *Cascade) {
		if n != nil {
			c.normalizer = n
		}
	}
}

// WithProgress reports batch progress to fn.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Cascade) {
		c.progress = fn
	}
}
