package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/spice-lens/internal/cache"
	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	Budgets  map[string]float64 `mapstructure:"budgets"`
	Logging  LoggingConfig      `mapstructure:"logging"`
	Cascade  CascadeConfig      `mapstructure:"cascade"`
	Cache    CacheConfig        `mapstructure:"cache"`
	Redis    RedisConfig        `mapstructure:"redis"`
	Database DatabaseConfig     `mapstructure:"database"`
	Metrics  MetricsConfig      `mapstructure:"metrics"`
	Analysis AnalysisConfig     `mapstructure:"analysis"`
	Risk     RiskConfig         `mapstructure:"risk"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CascadeConfig tunes the prediction cascade.
type CascadeConfig struct {
	RulesFile         string        `mapstructure:"rules_file"`
	CategoryThreshold float64       `mapstructure:"category_threshold"`
	Workers           int           `mapstructure:"workers"`
	ProviderTimeout   time.Duration `mapstructure:"provider_timeout"`
}

// CacheConfig selects the memo backend.
type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RedisConfig locates the Redis server for the redis memo backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DatabaseConfig locates the SQLite store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// MetricsConfig controls Prometheus textfile export. An empty path disables it.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// AnalysisConfig tunes the report pipeline.
type AnalysisConfig struct {
	ForecastMonths int     `mapstructure:"forecast_months"`
	AnomalyK       float64 `mapstructure:"anomaly_k"`
	TrendLimit     int     `mapstructure:"trend_limit"`
}

// RiskConfig tunes the cash-flow gap check.
type RiskConfig struct {
	Threshold float64 `mapstructure:"threshold"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("cascade.category_threshold", 0.6)
	v.SetDefault("cascade.workers", 4)
	v.SetDefault("cascade.provider_timeout", "2s")
	v.SetDefault("cascade.rules_file", "")

	v.SetDefault("cache.backend", cache.BackendMemory)
	v.SetDefault("cache.ttl", "15m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.path", "~/.local/share/lens/lens.db")
	v.SetDefault("metrics.textfile", "")

	v.SetDefault("analysis.forecast_months", 3)
	v.SetDefault("analysis.anomaly_k", 3.0)
	v.SetDefault("analysis.trend_limit", 10)

	v.SetDefault("risk.threshold", 0.2)
}

// Load applies defaults, unmarshals v and validates the result.
// Paths have ~ and environment variables expanded.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Cascade.RulesFile = ExpandPath(cfg.Cascade.RulesFile)
	cfg.Metrics.Textfile = ExpandPath(cfg.Metrics.Textfile)
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	if cfg.Budgets == nil {
		cfg.Budgets = map[string]float64{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be console or json, got %q", common.ErrInvalidConfig, c.Logging.Format)
	}

	if c.Cascade.CategoryThreshold < 0 || c.Cascade.CategoryThreshold > 1 {
		return fmt.Errorf("%w: cascade.category_threshold must be in [0, 1]", common.ErrInvalidConfig)
	}
	if c.Cascade.Workers < 1 {
		return fmt.Errorf("%w: cascade.workers must be at least 1", common.ErrInvalidConfig)
	}
	if c.Cascade.ProviderTimeout < 0 {
		return fmt.Errorf("%w: cascade.provider_timeout must not be negative", common.ErrInvalidConfig)
	}

	switch c.Cache.Backend {
	case cache.BackendMemory, cache.BackendNone:
	case cache.BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("%w: redis.addr is required for the redis cache backend", common.ErrMissingConfig)
		}
	default:
		return fmt.Errorf("%w: cache.backend must be memory, redis or none, got %q", common.ErrInvalidConfig, c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache.ttl must not be negative", common.ErrInvalidConfig)
	}

	if c.Analysis.ForecastMonths < 0 {
		return fmt.Errorf("%w: analysis.forecast_months must not be negative", common.ErrInvalidConfig)
	}
	if c.Analysis.AnomalyK <= 0 {
		return fmt.Errorf("%w: analysis.anomaly_k must be positive", common.ErrInvalidConfig)
	}
	if c.Analysis.TrendLimit < 1 {
		return fmt.Errorf("%w: analysis.trend_limit must be at least 1", common.ErrInvalidConfig)
	}
	if c.Risk.Threshold < 0 || c.Risk.Threshold >= 1 {
		return fmt.Errorf("%w: risk.threshold must be in [0, 1)", common.ErrInvalidConfig)
	}

	for category, limit := range c.Budgets {
		if limit < 0 {
			return fmt.Errorf("%w: budget for %s must not be negative", common.ErrInvalidConfig, category)
		}
	}
	return nil
}

// CacheOptions converts the cache settings into cache.Options.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:   c.Cache.Backend,
		TTL:       c.Cache.TTL,
		RedisAddr: c.Redis.Addr,
		RedisPass: c.Redis.Password,
		RedisDB:   c.Redis.DB,
	}
}
