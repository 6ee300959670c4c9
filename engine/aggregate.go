package engine

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// AggregationMode selects how per-profile scores reduce to one number.
type AggregationMode int

const (
	// AggregateGapPenalized averages the primary sub-score over successful
	// profiles and subtracts the comparison's gap penalty. Used when scoring
	// the same dimension across several profiles.
	AggregateGapPenalized AggregationMode = iota

	// AggregateWeighted takes a flat weighted mean over sub-score dimensions.
	// Used when scoring one subject across independent dimensions.
	AggregateWeighted
)

// Aggregator reduces normalized results into a single 0-100 score.
type Aggregator struct {
	mode    AggregationMode
	primary string
	weights map[string]float64
}

// NewGapPenalizedAggregator aggregates the given primary dimension across
// profiles, penalized by the comparison gap.
func NewGapPenalizedAggregator(primaryDimension string) *Aggregator {
	if primaryDimension == "" {
		primaryDimension = DimPerformance
	}
	return &Aggregator{mode: AggregateGapPenalized, primary: primaryDimension}
}

// NewWeightedAggregator aggregates sub-score dimensions by weight. Weights
// should sum to 1; nil weights mean the four standard dimensions at 0.25
// each.
func NewWeightedAggregator(weights map[string]float64) *Aggregator {
	if weights == nil {
		weights = map[string]float64{
			DimPerformance:   0.25,
			DimAccessibility: 0.25,
			DimMobile:        0.25,
			DimSecurity:      0.25,
		}
	}
	return &Aggregator{mode: AggregateWeighted, weights: weights}
}

// Aggregate computes the overall score, rounded to the nearest integer and
// floored at 0. Failed profiles are excluded from the average, never
// zero-padded into it; no successful profile at all scores 0.
func (a *Aggregator) Aggregate(results []NormalizedResult, cmp ComparisonReport) int {
	var ok []NormalizedResult
	for _, r := range results {
		if r.Success {
			ok = append(ok, r)
		}
	}
	if len(ok) == 0 {
		return 0
	}

	switch a.mode {
	case AggregateWeighted:
		return a.weightedMean(ok)
	default:
		scores := make([]float64, len(ok))
		for i, r := range ok {
			scores[i] = r.SubScores[a.primary]
		}
		overall := math.Max(0, stat.Mean(scores, nil)-cmp.GapPenalty)
		return int(math.Round(overall))
	}
}

// weightedMean averages each weighted dimension across successful profiles,
// then sums the weighted dimension means. With a single result this is the
// plain Σ(weight × subScore).
func (a *Aggregator) weightedMean(ok []NormalizedResult) int {
	overall := 0.0
	vals := make([]float64, 0, len(ok))
	for dim, w := range a.weights {
		vals = vals[:0]
		for _, r := range ok {
			vals = append(vals, r.SubScores[dim])
		}
		overall += w * stat.Mean(vals, nil)
	}
	return int(math.Round(math.Max(0, overall)))
}
