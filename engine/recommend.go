package engine

import (
	"fmt"
	"sort"
)

// Priority orders recommendations for the report layer.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is one actionable finding derived from the run.
type Recommendation struct {
	Priority    Priority `json:"priority"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Actions     []string `json:"actions"`
}

// Rule inspects the run and appends zero or more recommendations. Rules are
// evaluated in a fixed order so output is deterministic.
type Rule func(results []NormalizedResult, cmp ComparisonReport) []Recommendation

// Synthesizer turns comparator and per-profile output into a ranked, bounded
// list of recommendations.
type Synthesizer struct {
	rules []Rule
	cap   int
}

// Synthesis thresholds: sub-scores below lowScoreCutoff draw a finding,
// below criticalScoreCutoff at high priority; a primary-dimension gap above
// gapCutoff draws a divergence finding.
const (
	lowScoreCutoff      = 70.0
	criticalScoreCutoff = 40.0
	gapCutoff           = 20.0

	defaultRecommendationCap = 5
)

// NewSynthesizer creates a Synthesizer with the given rule list and output
// cap. A nil rule list uses DefaultRules for the dimension; cap <= 0 means
// the standard cap of 5.
func NewSynthesizer(rules []Rule, limit int) *Synthesizer {
	if rules == nil {
		rules = DefaultRules(DimPerformance)
	}
	if limit <= 0 {
		limit = defaultRecommendationCap
	}
	return &Synthesizer{rules: rules, cap: limit}
}

// Synthesize evaluates every rule in order, then stable-sorts by priority
// (high, medium, low — ties keep rule-evaluation order) and truncates to the
// cap.
func (s *Synthesizer) Synthesize(results []NormalizedResult, cmp ComparisonReport) []Recommendation {
	var recs []Recommendation
	for _, rule := range s.rules {
		recs = append(recs, rule(results, cmp)...)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank(recs[i].Priority) < priorityRank(recs[j].Priority)
	})

	if len(recs) > s.cap {
		recs = recs[:s.cap]
	}
	return recs
}

func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// DefaultRules is the standard ordered rule list: total failure, partial
// failure, low per-profile scores on the primary dimension, excessive
// cross-profile gap, and targeted findings for each high-severity metric
// delta.
func DefaultRules(primaryDimension string) []Rule {
	return []Rule{
		totalFailureRule(),
		partialFailureRule(),
		lowScoreRule(primaryDimension),
		divergenceRule(),
		highDeltaRule(),
	}
}

func totalFailureRule() Rule {
	return func(results []NormalizedResult, _ ComparisonReport) []Recommendation {
		if len(results) == 0 {
			return nil
		}
		for _, r := range results {
			if r.Success {
				return nil
			}
		}
		return []Recommendation{{
			Priority:    PriorityHigh,
			Category:    "availability",
			Title:       "Analysis failed on every profile",
			Description: "The page could not be analyzed under any requested profile. It may be unreachable, blocking automated browsers, or timing out.",
			Actions: []string{
				"Verify the URL is publicly reachable",
				"Check for bot-blocking or WAF interference",
				"Retry with a longer per-profile timeout",
			},
		}}
	}
}

func partialFailureRule() Rule {
	return func(results []NormalizedResult, _ ComparisonReport) []Recommendation {
		var failed, succeeded []string
		for _, r := range results {
			if r.Success {
				succeeded = append(succeeded, r.ProfileKey)
			} else {
				failed = append(failed, r.ProfileKey)
			}
		}
		if len(failed) == 0 || len(succeeded) == 0 {
			return nil
		}
		var recs []Recommendation
		for _, key := range failed {
			recs = append(recs, Recommendation{
				Priority:    PriorityMedium,
				Category:    "availability",
				Title:       fmt.Sprintf("Analysis failed on %s", key),
				Description: fmt.Sprintf("The %s profile did not complete while other profiles did; results for it are missing from the comparison.", key),
				Actions: []string{
					"Inspect the per-profile error in the report detail",
					"Test the page manually under this device configuration",
				},
			})
		}
		return recs
	}
}

func lowScoreRule(dim string) Rule {
	return func(results []NormalizedResult, _ ComparisonReport) []Recommendation {
		var recs []Recommendation
		for _, r := range results {
			if !r.Success {
				continue
			}
			score := r.SubScores[dim]
			if score >= lowScoreCutoff {
				continue
			}
			prio := PriorityMedium
			if score < criticalScoreCutoff {
				prio = PriorityHigh
			}
			recs = append(recs, Recommendation{
				Priority:    prio,
				Category:    dim,
				Title:       fmt.Sprintf("Low %s score on %s", dim, r.ProfileKey),
				Description: fmt.Sprintf("The %s profile scored %.0f/100 on %s, below the %d-point target.", r.ProfileKey, score, dim, int(lowScoreCutoff)),
				Actions: []string{
					fmt.Sprintf("Review the %s metrics for the %s profile", dim, r.ProfileKey),
					"Prioritize fixes for the lowest-scoring metric",
				},
			})
		}
		return recs
	}
}

func divergenceRule() Rule {
	return func(_ []NormalizedResult, cmp ComparisonReport) []Recommendation {
		if cmp.MaxGap <= gapCutoff {
			return nil
		}
		return []Recommendation{{
			Priority:    PriorityHigh,
			Category:    "consistency",
			Title:       "Reduce divergence between profiles",
			Description: fmt.Sprintf("Profiles differ by %.0f points on the primary score. Users get a markedly different experience depending on their device.", cmp.MaxGap),
			Actions: []string{
				"Compare the per-profile metric breakdown",
				"Serve responsive assets sized for each form factor",
				"Test under the worst-scoring profile's network conditions",
			},
		}}
	}
}

func highDeltaRule() Rule {
	return func(_ []NormalizedResult, cmp ComparisonReport) []Recommendation {
		var recs []Recommendation
		for _, d := range cmp.PerMetricDeltas {
			if d.Severity != SeverityHigh {
				continue
			}
			recs = append(recs, Recommendation{
				Priority:    PriorityHigh,
				Category:    "consistency",
				Title:       fmt.Sprintf("Large %s gap between %s and %s", d.Metric, d.ProfileA, d.ProfileB),
				Description: fmt.Sprintf("%s differs by %.0f between the %s and %s profiles.", d.Metric, d.Delta, d.ProfileA, d.ProfileB),
				Actions: []string{
					fmt.Sprintf("Profile %s on the slower configuration", d.Metric),
					"Defer or shrink the resources driving the difference",
				},
			})
		}
		return recs
	}
}
