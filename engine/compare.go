package engine

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Severity classifies how far apart two profiles are on one metric.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// MetricDelta is the signed difference on one tracked metric between the two
// reference profiles. Only deltas that cross a configured threshold are
// reported.
type MetricDelta struct {
	Metric   string   `json:"metric"`
	ProfileA string   `json:"profile_a"`
	ProfileB string   `json:"profile_b"`
	Delta    float64  `json:"delta"`
	Severity Severity `json:"severity"`
}

// ComparisonReport captures cross-profile divergence: the widest gap on the
// primary dimension, the bounded score penalty derived from it, per-metric
// deltas, and a 0-100 consistency score. Recomputed every run, never
// persisted on its own.
type ComparisonReport struct {
	MaxGap           float64       `json:"max_gap"`
	GapPenalty       float64       `json:"gap_penalty"`
	PerMetricDeltas  []MetricDelta `json:"per_metric_deltas"`
	ConsistencyScore float64       `json:"consistency_score"`
}

// Cross-profile scoring constants. The penalty halves the gap and caps it at
// 15 points so one extreme profile cannot zero out the aggregate; each
// flagged divergence costs 20 consistency points.
const (
	gapPenaltyCap   = 15.0
	consistencyStep = 20.0
	maxConsistency  = 100.0
)

// DeltaThreshold configures severity classification for one tracked metric.
// Absolute deltas above High flag high, above Medium flag medium; smaller
// deltas are not reported.
type DeltaThreshold struct {
	Metric string  `yaml:"metric"`
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
}

// CompareConfig parameterizes a Comparator.
type CompareConfig struct {
	// PrimaryDimension is the sub-score used for the max-gap computation.
	PrimaryDimension string

	// Thresholds lists the tracked secondary metrics and their severity
	// cutoffs, evaluated in order.
	Thresholds []DeltaThreshold

	// SpreadConsistency switches the consistency formula from the flagged-
	// delta count to a matched-spread variant: with more than two profiles a
	// metric is flagged when its standard deviation across profiles exceeds
	// half its medium threshold. Both variants score 100 at zero flags and
	// never increase with more flags.
	SpreadConsistency bool
}

// Comparator computes pairwise and aggregate gaps between normalized profile
// results.
type Comparator struct {
	cfg CompareConfig
}

// NewComparator creates a Comparator. An empty primary dimension defaults to
// the performance dimension.
func NewComparator(cfg CompareConfig) *Comparator {
	if cfg.PrimaryDimension == "" {
		cfg.PrimaryDimension = DimPerformance
	}
	return &Comparator{cfg: cfg}
}

// DefaultThresholds covers the latency-style metrics the standard extractor
// emits.
func DefaultThresholds() []DeltaThreshold {
	return []DeltaThreshold{
		{Metric: "load_ms", High: 3000, Medium: 2000},
		{Metric: "first_paint_ms", High: 2500, Medium: 1500},
		{Metric: "dom_content_loaded_ms", High: 2500, Medium: 1500},
		{Metric: "request_count", High: 60, Medium: 35},
	}
}

// Compare derives a ComparisonReport from the run's normalized results.
// Fewer than two successful results yield a neutral report: zero gap, zero
// consistency, no deltas.
func (c *Comparator) Compare(results []NormalizedResult) ComparisonReport {
	var ok []NormalizedResult
	for _, r := range results {
		if r.Success {
			ok = append(ok, r)
		}
	}
	if len(ok) < 2 {
		return ComparisonReport{}
	}

	rep := ComparisonReport{}

	// Widest gap on the primary dimension.
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, r := range ok {
		s := r.SubScores[c.cfg.PrimaryDimension]
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	rep.MaxGap = hi - lo
	rep.GapPenalty = math.Min(rep.MaxGap/2, gapPenaltyCap)

	// Signed deltas between the reference pair: the first two successful
	// results in request order (desktop vs mobile under the default
	// registry).
	a, b := ok[0], ok[1]
	for _, th := range c.cfg.Thresholds {
		delta := a.Metrics[th.Metric] - b.Metrics[th.Metric]
		sev, flagged := classify(math.Abs(delta), th)
		if !flagged {
			continue
		}
		rep.PerMetricDeltas = append(rep.PerMetricDeltas, MetricDelta{
			Metric:   th.Metric,
			ProfileA: a.ProfileKey,
			ProfileB: b.ProfileKey,
			Delta:    delta,
			Severity: sev,
		})
	}

	flagged := len(rep.PerMetricDeltas)
	if c.cfg.SpreadConsistency && len(ok) > 2 {
		flagged = c.countSpreadFlags(ok)
	}
	rep.ConsistencyScore = math.Max(0, maxConsistency-consistencyStep*float64(flagged))

	return rep
}

// countSpreadFlags flags each tracked metric whose spread across all
// successful profiles, measured as unweighted standard deviation, exceeds
// half the metric's medium threshold.
func (c *Comparator) countSpreadFlags(ok []NormalizedResult) int {
	flagged := 0
	vals := make([]float64, 0, len(ok))
	for _, th := range c.cfg.Thresholds {
		if th.Medium <= 0 {
			continue
		}
		vals = vals[:0]
		for _, r := range ok {
			vals = append(vals, r.Metrics[th.Metric])
		}
		if stat.StdDev(vals, nil) > th.Medium/2 {
			flagged++
		}
	}
	return flagged
}

func classify(abs float64, th DeltaThreshold) (Severity, bool) {
	switch {
	case th.High > 0 && abs > th.High:
		return SeverityHigh, true
	case th.Medium > 0 && abs > th.Medium:
		return SeverityMedium, true
	default:
		return "", false
	}
}
