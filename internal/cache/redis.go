package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lens:prediction:"

// RedisCache stores predictions in Redis as JSON with a TTL.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// RedisConfig configures the Redis memo backend.
type RedisConfig struct {
	Logger   *slog.Logger
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Retry    common.RetryOptions
}

// NewRedisCache connects to Redis and verifies the connection with retries.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := common.WithRetry(ctx, func() error {
		return pingError(client.Ping(ctx).Err())
	}, cfg.Retry)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}

	return NewRedisCacheFromClient(client, cfg.TTL, cfg.Logger), nil
}

// pingError marks server replies such as WRONGPASS as final. Network failures stay retryable.
func pingError(err error) error {
	var reply redis.Error
	if errors.As(err, &reply) {
		return &common.RetryableError{Err: err, Retryable: false}
	}
	return err
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: common.OrDefault(logger),
	}
}

// Get retrieves a prediction. Redis failures are reported as misses.
func (c *RedisCache) Get(ctx context.Context, key string) (model.PredictionResult, bool) {
	data, err := c.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return model.PredictionResult{}, false
	}
	if err != nil {
		c.logger.Debug("Redis memo lookup failed", "error", err)
		return model.PredictionResult{}, false
	}

	var result model.PredictionResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Warn("Discarding unreadable memo entry", "key", key, "error", err)
		return model.PredictionResult{}, false
	}

	return result, true
}

// Set stores a prediction. Failures are logged and otherwise ignored.
func (c *RedisCache) Set(ctx context.Context, key string, result model.PredictionResult) {
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("Failed to encode memo entry", "error", err)
		return
	}

	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		c.logger.Debug("Redis memo write failed", "error", err)
	}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
