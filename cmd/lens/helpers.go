package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/spice-lens/internal/cache"
	"github.com/Veraticus/spice-lens/internal/cascade"
	"github.com/Veraticus/spice-lens/internal/classification"
	"github.com/Veraticus/spice-lens/internal/common"
	"github.com/Veraticus/spice-lens/internal/config"
	"github.com/Veraticus/spice-lens/internal/coordinator"
	"github.com/Veraticus/spice-lens/internal/ingest"
	"github.com/Veraticus/spice-lens/internal/metrics"
	"github.com/Veraticus/spice-lens/internal/model"
	"github.com/Veraticus/spice-lens/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// app holds the dependencies shared by commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	memo     cache.Store
	detector *classification.Detector
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   slog.Default(),
		registry: prometheus.NewRegistry(),
	}

	a.metrics, err = metrics.New(a.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	if cfg.Cascade.RulesFile != "" {
		rules, err := classification.LoadRules(cfg.Cascade.RulesFile)
		if err != nil {
			return nil, err
		}
		a.detector, err = classification.NewDetector(rules)
		if err != nil {
			return nil, fmt.Errorf("invalid rules in %s: %w", cfg.Cascade.RulesFile, err)
		}
		a.logger.Debug("Loaded keyword rules",
			"path", cfg.Cascade.RulesFile,
			"rules", a.detector.GetRuleCount(),
			"categories", a.detector.Categories())
	}

	opts := cfg.CacheOptions()
	opts.Logger = a.logger
	a.memo, err = cache.New(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction cache: %w", err)
	}

	return a, nil
}

// close releases the memo and writes the metrics textfile when configured.
func (a *app) close() {
	if a.memo != nil {
		if err := a.memo.Close(); err != nil {
			a.logger.Warn("Failed to close prediction cache", "error", err)
		}
	}
	if a.cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile, a.registry); err != nil {
			a.logger.Warn("Failed to write metrics textfile", "path", a.cfg.Metrics.Textfile, "error", err)
		}
	}
}

func (a *app) cascade(extra ...cascade.Option) *cascade.Cascade {
	opts := []cascade.Option{
		cascade.WithThreshold(a.cfg.Cascade.CategoryThreshold),
		cascade.WithTimeout(a.cfg.Cascade.ProviderTimeout),
		cascade.WithWorkers(a.cfg.Cascade.Workers),
		cascade.WithLogger(a.logger),
		cascade.WithMetrics(a.metrics),
		cascade.WithDetector(a.detector),
	}
	if a.memo != nil {
		opts = append(opts, cascade.WithMemo(a.memo))
	}
	// No trained model ships with the CLI; the cascade answers from keyword rules.
	return cascade.New(nil, append(opts, extra...)...)
}

func (a *app) coordinator(classifier *cascade.Cascade, months int) *coordinator.Coordinator {
	if months <= 0 {
		months = a.cfg.Analysis.ForecastMonths
	}
	return coordinator.New(classifier, coordinator.Options{
		Logger:         a.logger,
		Metrics:        a.metrics,
		Budgets:        a.cfg.Budgets,
		ForecastMonths: months,
		AnomalyK:       a.cfg.Analysis.AnomalyK,
		RiskThreshold:  a.cfg.Risk.Threshold,
		TrendLimit:     a.cfg.Analysis.TrendLimit,
	})
}

func (a *app) openStore(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.Open(ctx, a.cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}

func loadInput(ctx context.Context, path string, logger *slog.Logger) ([]model.Transaction, error) {
	if strings.TrimSpace(path) == "" {
		return nil, common.NewUserError("--input is required", common.ErrMissingConfig)
	}
	txns, err := ingest.ReadFile(ctx, config.ExpandPath(path), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded transactions", "path", path, "count", len(txns))
	return txns, nil
}

// parseAmountFlag parses an optional decimal flag. Empty means absent.
func parseAmountFlag(name, value string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(value) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(value), ",", ""))
	if err != nil {
		return decimal.NullDecimal{}, common.NewUserError(
			fmt.Sprintf("--%s must be a number, got %q", name, value), common.ErrMalformedInput)
	}
	return decimal.NewNullDecimal(d), nil
}
