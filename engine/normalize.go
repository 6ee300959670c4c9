package engine

import "time"

// Canonical sub-score dimensions. Normalizers map source-specific metric names
// onto these; the comparator and aggregator never see raw metric schemas.
const (
	DimPerformance   = "performance"
	DimAccessibility = "accessibility"
	DimMobile        = "mobile"
	DimSecurity      = "security"
)

// RawMetrics is the opaque per-profile metrics bag produced by an Extractor.
// Metrics holds numeric observations keyed by source-specific names; Details
// holds string-valued raw fields kept for report detail views.
type RawMetrics struct {
	Metrics map[string]float64
	Details map[string]string
}

// RawProfileResult is the outcome of one per-profile analysis. It is owned by
// the pipeline run that produced it and discarded after normalization; detail
// fields are copied forward, never referenced.
type RawProfileResult struct {
	ProfileKey string
	Success    bool
	Error      string
	Metrics    map[string]float64
	Details    map[string]string
	Timestamp  time.Time
}

// NormalizedResult is one profile's analysis in the canonical shape the rest
// of the pipeline consumes. SubScores values are always in [0,100]; a failed
// profile carries all-zero sub-scores and Success=false.
type NormalizedResult struct {
	ProfileKey string             `json:"profile_key"`
	Success    bool               `json:"success"`
	Error      string             `json:"error,omitempty"`
	SubScores  map[string]float64 `json:"sub_scores"`
	Metrics    map[string]float64 `json:"metrics"`
	Details    map[string]string  `json:"details,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Normalizer maps one raw per-profile result into the canonical form. It must
// be a pure function of its input: no hidden state, same input same output.
type Normalizer interface {
	Normalize(raw RawProfileResult) NormalizedResult
}

// ScoreMapping maps a canonical dimension to the raw metric carrying its
// 0-100 score for a given metrics source.
type ScoreMapping map[string]string

// MapNormalizer normalizes by table lookup: each configured dimension is read
// from its mapped raw metric, defaulting to 0 when absent, and clamped to
// [0,100]. It isolates the pipeline from per-source metric schema drift.
type MapNormalizer struct {
	dims    []string
	mapping ScoreMapping
}

// NewMapNormalizer creates a normalizer for the given dimensions. Dimensions
// missing from the mapping default to the "<dimension>_score" raw metric.
func NewMapNormalizer(dims []string, mapping ScoreMapping) *MapNormalizer {
	m := make(ScoreMapping, len(dims))
	for _, d := range dims {
		if src, ok := mapping[d]; ok {
			m[d] = src
		} else {
			m[d] = d + "_score"
		}
	}
	return &MapNormalizer{dims: append([]string(nil), dims...), mapping: m}
}

// DefaultNormalizer maps the four standard dimensions from their
// "<dimension>_score" raw metrics.
func DefaultNormalizer() *MapNormalizer {
	return NewMapNormalizer(
		[]string{DimPerformance, DimAccessibility, DimMobile, DimSecurity}, nil)
}

// Normalize implements Normalizer.
func (n *MapNormalizer) Normalize(raw RawProfileResult) NormalizedResult {
	out := NormalizedResult{
		ProfileKey: raw.ProfileKey,
		Success:    raw.Success,
		Error:      raw.Error,
		SubScores:  make(map[string]float64, len(n.dims)),
		Metrics:    make(map[string]float64, len(raw.Metrics)),
		Timestamp:  raw.Timestamp,
	}

	// Failed profiles normalize to all-zero sub-scores.
	if !raw.Success {
		for _, d := range n.dims {
			out.SubScores[d] = 0
		}
		return out
	}

	for _, d := range n.dims {
		out.SubScores[d] = clampScore(raw.Metrics[n.mapping[d]])
	}
	for k, v := range raw.Metrics {
		out.Metrics[k] = v
	}
	if len(raw.Details) > 0 {
		out.Details = make(map[string]string, len(raw.Details))
		for k, v := range raw.Details {
			out.Details[k] = v
		}
	}
	return out
}

// Dimensions returns the canonical dimensions this normalizer emits.
func (n *MapNormalizer) Dimensions() []string {
	return append([]string(nil), n.dims...)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
