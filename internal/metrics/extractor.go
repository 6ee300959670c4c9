// Package metrics performs the per-profile metric extraction: navigation
// timing from the live session plus DOM audits (accessibility, mobile
// usability, security, fonts) over the rendered HTML. It emits a raw,
// source-specific metrics bag; the engine's normalizer maps it to canonical
// sub-scores.
package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"

	"github.com/hazyhaar/siteaudit/engine"
	"github.com/hazyhaar/siteaudit/internal/browser"
)

// Extractor implements engine.Extractor against browser sessions.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates an Extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract reads timing and DOM from the session and derives the raw metrics
// bag, including the four "<dimension>_score" heuristics the default
// normalizer maps.
func (e *Extractor) Extract(ctx context.Context, s engine.Session, p engine.Profile) (engine.RawMetrics, error) {
	bs, ok := s.(*browser.Session)
	if !ok {
		return engine.RawMetrics{}, fmt.Errorf("metrics: unsupported session type %T", s)
	}

	timing, err := bs.Timing(ctx)
	if err != nil {
		return engine.RawMetrics{}, err
	}

	pageHTML, err := bs.HTML(ctx)
	if err != nil {
		return engine.RawMetrics{}, err
	}

	finalURL, err := bs.FinalURL(ctx)
	if err != nil {
		return engine.RawMetrics{}, err
	}

	// External stylesheet rules carry most real-world font declarations;
	// a failure to read them degrades font detection, nothing else.
	sheetCSS, err := bs.Stylesheets(ctx)
	if err != nil {
		e.logger.Debug("metrics: read stylesheets failed", "profile", p.Key, "error", err)
		sheetCSS = ""
	}

	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return engine.RawMetrics{}, fmt.Errorf("metrics: parse DOM: %w", err)
	}

	audit := auditDOM(doc, finalURL)
	fonts := detectFonts(doc, sheetCSS)

	m := map[string]float64{
		"load_ms":               timing.LoadMs,
		"dom_content_loaded_ms": timing.DOMContentLoadedMs,
		"first_paint_ms":        timing.FirstPaintMs,
		"transfer_kb":           timing.TransferKB,
		"request_count":         timing.RequestCount,

		"image_count":        float64(audit.Images),
		"images_missing_alt": float64(audit.ImagesMissingAlt),
		"inputs_unlabeled":   float64(audit.InputsUnlabeled),
		"h1_count":           float64(audit.H1Count),
		"tap_targets":        float64(audit.TapTargets),
		"insecure_refs":      float64(audit.InsecureRefs),

		"font_count":        float64(len(fonts)),
		"google_font_count": float64(countGoogleFonts(fonts)),

		"performance_score":   performanceScore(timing),
		"accessibility_score": accessibilityScore(audit),
		"mobile_score":        mobileScore(audit),
		"security_score":      securityScore(audit),
	}
	m["has_lang"] = boolMetric(audit.HasLang)
	m["viewport_meta"] = boolMetric(audit.ViewportMeta)
	m["https"] = boolMetric(audit.HTTPS)

	details := map[string]string{
		"final_url": finalURL,
		"title":     audit.Title,
	}
	if len(fonts) > 0 {
		details["fonts"] = joinFamilies(fonts)
	}

	e.logger.Debug("metrics: extracted",
		"profile", p.Key,
		"load_ms", timing.LoadMs,
		"performance", m["performance_score"],
		"fonts", len(fonts))

	return engine.RawMetrics{Metrics: m, Details: details}, nil
}

func boolMetric(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
