// Package siteaudit wires the analysis engine to headless Chrome, the metric
// extractor, and the report history store. An Auditor is the whole product in
// one object: construct it from a Config, Start it, Analyze targets, Stop it.
package siteaudit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/siteaudit/engine"
	"github.com/hazyhaar/siteaudit/internal/browser"
	"github.com/hazyhaar/siteaudit/internal/metrics"
	"github.com/hazyhaar/siteaudit/internal/store"
)

// Auditor runs website analyses and keeps their history. It implements the
// HTTP server's Analyzer contract.
type Auditor struct {
	cfg    *Config
	mgr    *browser.Manager
	eng    *engine.Engine
	st     *store.Store
	logger *slog.Logger
}

// New assembles an Auditor from cfg. The browser is not launched and the
// store is not opened until Start.
func New(cfg *Config, logger *slog.Logger) (*Auditor, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	mgr := browser.NewManager(browser.Config{
		RemoteURL:   cfg.Browser.Remote,
		MaxSessions: cfg.Browser.MaxSessions,
		Logger:      logger,
	})

	var agg *engine.Aggregator
	switch cfg.Analysis.Scoring {
	case "", "gap_penalized":
		// Engine default.
	case "weighted":
		agg = engine.NewWeightedAggregator(nil)
	default:
		return nil, fmt.Errorf("siteaudit: unknown scoring mode %q", cfg.Analysis.Scoring)
	}

	eng, err := engine.New(engine.Config{
		Registry:  cfg.Registry(),
		Provider:  browser.NewProvider(mgr),
		Extractor: metrics.NewExtractor(logger),
		Compare: engine.CompareConfig{
			PrimaryDimension:  engine.DimPerformance,
			SpreadConsistency: cfg.Analysis.SpreadConsistency,
		},
		Aggregator:        agg,
		RecommendationCap: cfg.Analysis.RecommendationCap,
		ProfileTimeout:    cfg.Analysis.ProfileTimeout,
		GlobalTimeout:     cfg.Analysis.GlobalTimeout,
		Logger:            logger,
	})
	if err != nil {
		return nil, err
	}

	return &Auditor{cfg: cfg, mgr: mgr, eng: eng, logger: logger}, nil
}

// Start launches (or connects to) Chrome and opens the history store when one
// is configured, pruning reports past the retention window.
func (a *Auditor) Start(ctx context.Context) error {
	if err := a.mgr.Start(ctx); err != nil {
		return err
	}

	if a.cfg.Store.Path != "" {
		st, err := store.Open(a.cfg.Store.Path)
		if err != nil {
			a.mgr.Close()
			return err
		}
		a.st = st
		if err := st.Cleanup(ctx, a.cfg.Store.RetentionDays); err != nil {
			a.logger.Warn("siteaudit: history cleanup failed", "error", err)
		}
	}
	return nil
}

// Stop closes the browser and the history store.
func (a *Auditor) Stop() {
	a.mgr.Close()
	if a.st != nil {
		if err := a.st.Close(); err != nil {
			a.logger.Warn("siteaudit: close store failed", "error", err)
		}
	}
}

// Analyze runs the engine against target and records the report in the
// history store when one is open. A storage failure does not fail the
// analysis; the report is still returned.
func (a *Auditor) Analyze(ctx context.Context, target string, profiles []string) (*engine.Report, error) {
	rep, err := a.eng.Run(ctx, target, profiles)
	if err != nil {
		return nil, err
	}

	if a.st != nil {
		if id, err := a.st.Insert(ctx, rep); err != nil {
			a.logger.Warn("siteaudit: store report failed", "url", target, "error", err)
		} else {
			a.logger.Debug("siteaudit: report stored", "id", id, "url", target)
		}
	}
	return rep, nil
}

// History lists stored report metadata, newest first.
func (a *Auditor) History(ctx context.Context, limit int) ([]store.Record, error) {
	if a.st == nil {
		return nil, fmt.Errorf("siteaudit: report history is not configured")
	}
	return a.st.List(ctx, limit)
}

// Report fetches one stored report by ID.
func (a *Auditor) Report(ctx context.Context, id string) (*store.Record, error) {
	if a.st == nil {
		return nil, fmt.Errorf("siteaudit: report history is not configured")
	}
	return a.st.Get(ctx, id)
}

// PrimaryDimension returns the dimension overall scoring keys on.
func (a *Auditor) PrimaryDimension() string { return a.eng.PrimaryDimension() }

// Engine exposes the underlying engine, for callers embedding the auditor.
func (a *Auditor) Engine() *engine.Engine { return a.eng }
