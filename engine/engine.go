// Package engine implements the multi-profile analysis engine: it fans one
// target URL out to concurrent per-profile analyses, tolerates partial
// failure, normalizes heterogeneous raw metrics into comparable 0-100
// sub-scores, measures cross-profile consistency, reduces everything to one
// overall score, and synthesizes prioritized recommendations.
//
// The engine is parametric: the browser session provider, the metric
// extractor, the normalizer, the comparator rule set, and the aggregation
// strategy are all injected through Config, so the same pipeline serves
// cross-profile comparison and multi-dimension single-subject scoring. An
// Engine is stateless between runs; construct one per wiring, share it
// freely.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"
)

// Config wires an Engine. Provider and Extractor are required; everything
// else has working defaults.
type Config struct {
	// Registry of known profiles. Default: BuiltinRegistry.
	Registry *Registry

	// Provider acquires browser sessions. Required.
	Provider SessionProvider

	// Extractor performs per-profile metric extraction. Required.
	Extractor Extractor

	// Normalizer maps raw metrics to canonical sub-scores.
	// Default: DefaultNormalizer.
	Normalizer Normalizer

	// Compare parameterizes the comparator. Default: performance primary
	// dimension with DefaultThresholds.
	Compare CompareConfig

	// Aggregator reduces scores. Default: gap-penalized average over the
	// comparator's primary dimension.
	Aggregator *Aggregator

	// Rules for recommendation synthesis. Default: DefaultRules over the
	// primary dimension.
	Rules []Rule

	// RecommendationCap bounds the synthesized list. Default: 5.
	RecommendationCap int

	// ProfileTimeout bounds each per-profile analysis. Default: 45s.
	ProfileTimeout time.Duration

	// GlobalTimeout, when positive, bounds the whole fan-out and cancels
	// still-pending profile tasks at the deadline. Zero disables it and
	// lets every dispatched task run to its own timeout.
	GlobalTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Registry == nil {
		c.Registry = BuiltinRegistry()
	}
	if c.Normalizer == nil {
		c.Normalizer = DefaultNormalizer()
	}
	if c.Compare.PrimaryDimension == "" {
		c.Compare.PrimaryDimension = DimPerformance
	}
	if c.Compare.Thresholds == nil {
		c.Compare.Thresholds = DefaultThresholds()
	}
	if c.ProfileTimeout <= 0 {
		c.ProfileTimeout = 45 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Engine runs the analysis pipeline. Create with New.
type Engine struct {
	registry   *Registry
	exec       *executor
	normalizer Normalizer
	comparator *Comparator
	aggregator *Aggregator
	synth      *Synthesizer
	globalTO   time.Duration
	primary    string
	logger     *slog.Logger
}

// New creates an Engine from cfg. Provider and Extractor must be set.
func New(cfg Config) (*Engine, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("engine: session provider is required")
	}
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("engine: extractor is required")
	}
	cfg.defaults()

	agg := cfg.Aggregator
	if agg == nil {
		agg = NewGapPenalizedAggregator(cfg.Compare.PrimaryDimension)
	}
	rules := cfg.Rules
	if rules == nil {
		rules = DefaultRules(cfg.Compare.PrimaryDimension)
	}

	return &Engine{
		registry: cfg.Registry,
		exec: &executor{
			provider: cfg.Provider,
			extract:  cfg.Extractor,
			timeout:  cfg.ProfileTimeout,
			logger:   cfg.Logger,
		},
		normalizer: cfg.Normalizer,
		comparator: NewComparator(cfg.Compare),
		aggregator: agg,
		synth:      NewSynthesizer(rules, cfg.RecommendationCap),
		globalTO:   cfg.GlobalTimeout,
		primary:    cfg.Compare.PrimaryDimension,
		logger:     cfg.Logger,
	}, nil
}

// Registry exposes the engine's profile table.
func (e *Engine) Registry() *Registry { return e.registry }

// PrimaryDimension returns the dimension the comparator and default
// aggregator score on.
func (e *Engine) PrimaryDimension() string { return e.primary }

// Run analyzes target under the requested profile keys and returns the
// completed report. A nil or empty key list means the registry defaults.
//
// Run returns an error only for request-level failures (malformed target
// URL). Per-profile failures, including every profile failing, yield a valid
// report: the profiles map has exactly one entry per recognized requested
// key, failed entries carry Success=false, and a fully failed batch scores 0
// with a total-failure recommendation.
func (e *Engine) Run(ctx context.Context, target string, keys []string) (*Report, error) {
	start := time.Now()

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("engine: invalid target URL %q: %w", target, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("engine: target URL %q must be absolute", target)
	}

	if len(keys) == 0 {
		keys = e.registry.DefaultKeys()
	}

	if e.globalTO > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.globalTO)
		defer cancel()
	}

	e.logger.Info("engine: analysis started", "target", target, "profiles", keys)
	raws, order := e.runAll(ctx, keys, target)

	profiles := make(map[string]NormalizedResult, len(order))
	results := make([]NormalizedResult, 0, len(order))
	for _, key := range order {
		n := e.normalizer.Normalize(raws[key])
		profiles[key] = n
		results = append(results, n)
	}

	cmp := e.comparator.Compare(results)
	score := e.aggregator.Aggregate(results, cmp)
	recs := e.synth.Synthesize(results, cmp)

	rep := &Report{
		Timestamp:       start.UTC(),
		URL:             target,
		Profiles:        profiles,
		Comparison:      cmp,
		OverallScore:    score,
		Recommendations: recs,
		DurationMs:      time.Since(start).Milliseconds(),
	}

	e.logger.Info("engine: analysis done",
		"target", target,
		"overall", score,
		"consistency", cmp.ConsistencyScore,
		"partial", rep.Partial(),
		"duration_ms", rep.DurationMs)
	return rep, nil
}
