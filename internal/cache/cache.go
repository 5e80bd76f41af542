// Package cache provides memo backends for classification results.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/shopspring/decimal"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Key builds the memo key for a normalized description and optional amount.
// scope identifies the classifier configuration that produced the result.
func Key(scope, normalized string, amount decimal.NullDecimal) string {
	if !amount.Valid {
		return scope + "|" + normalized + "|-"
	}
	return scope + "|" + normalized + "|" + amount.Decimal.String()
}

// entry represents a cached prediction.
type entry struct {
	Expiry time.Time
	Result model.PredictionResult
}

// Store is a memo backend that can be closed.
type Store interface {
	Get(ctx context.Context, key string) (model.PredictionResult, bool)
	Set(ctx context.Context, key string, result model.PredictionResult)
	Close() error
}

// Options selects and configures a memo backend.
type Options struct {
	Logger    *slog.Logger
	Backend   string
	RedisAddr string
	RedisPass string
	RedisDB   int
	TTL       time.Duration
}

// New builds the configured backend. BackendNone returns a nil Store.
func New(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendNone:
		return nil, nil //nolint:nilnil // memoization disabled
	case BackendMemory, "":
		return NewMemoryCache(opts.TTL), nil
	case BackendRedis:
		store, err := NewRedisCache(ctx, RedisConfig{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPass,
			DB:       opts.RedisDB,
			TTL:      opts.TTL,
			Logger:   opts.Logger,
			Retry: common.RetryOptions{
				MaxAttempts:  3,
				InitialDelay: 200 * time.Millisecond,
				MaxDelay:     2 * time.Second,
			},
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", common.ErrInvalidConfig, opts.Backend)
	}
}
