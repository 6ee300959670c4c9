package engine

import (
	"strings"
	"testing"
)

func TestSynthesize_TotalFailure(t *testing.T) {
	// WHAT: An all-failed batch produces a non-empty list led by the
	// total-failure finding.
	// WHY: A zero-score report with no explanation is useless to the caller.
	s := NewSynthesizer(nil, 0)
	recs := s.Synthesize([]NormalizedResult{failedResult("desktop"), failedResult("mobile")}, ComparisonReport{})

	if len(recs) == 0 {
		t.Fatal("expected recommendations for total failure")
	}
	if recs[0].Priority != PriorityHigh || recs[0].Category != "availability" {
		t.Errorf("lead rec = %+v, want high/availability", recs[0])
	}
}

func TestSynthesize_PartialFailureNamedPerProfile(t *testing.T) {
	// WHAT: Each failed profile in a mixed batch draws its own medium
	// finding.
	// WHY: The report layer renders the partial-analysis state per profile.
	s := NewSynthesizer(nil, 0)
	recs := s.Synthesize([]NormalizedResult{
		okResult("desktop", 95, nil),
		failedResult("mobile"),
	}, ComparisonReport{})

	found := false
	for _, r := range recs {
		if r.Priority == PriorityMedium && strings.Contains(r.Title, "mobile") {
			found = true
		}
	}
	if !found {
		t.Errorf("no partial-failure rec naming mobile in %+v", recs)
	}
}

func TestSynthesize_LowScorePerProfile(t *testing.T) {
	// WHAT: A sub-70 primary score draws a medium finding, sub-40 a high
	// one.
	// WHY: The 70-point target and 40-point critical cutoff are the scoring
	// contract.
	s := NewSynthesizer(nil, 0)
	recs := s.Synthesize([]NormalizedResult{
		okResult("desktop", 95, nil),
		okResult("tablet", 65, nil),
		okResult("mobile", 30, nil),
	}, ComparisonReport{})

	var tablet, mobile *Recommendation
	for i := range recs {
		if strings.Contains(recs[i].Title, "tablet") {
			tablet = &recs[i]
		}
		if strings.Contains(recs[i].Title, "mobile") {
			mobile = &recs[i]
		}
	}
	if tablet == nil || tablet.Priority != PriorityMedium {
		t.Errorf("tablet at 65 should draw a medium rec, got %+v", tablet)
	}
	if mobile == nil || mobile.Priority != PriorityHigh {
		t.Errorf("mobile at 30 should draw a high rec, got %+v", mobile)
	}
}

func TestSynthesize_DivergenceAboveGapCutoff(t *testing.T) {
	// WHAT: maxGap above 20 draws the reduce-divergence finding; 20 or
	// below does not.
	// WHY: Small gaps are normal device variance, not actionable.
	s := NewSynthesizer(nil, 0)

	recs := s.Synthesize(nil, ComparisonReport{MaxGap: 25})
	if len(recs) != 1 || !strings.Contains(recs[0].Title, "divergence") {
		t.Errorf("gap 25: got %+v, want one divergence rec", recs)
	}

	recs = s.Synthesize(nil, ComparisonReport{MaxGap: 20})
	if len(recs) != 0 {
		t.Errorf("gap 20: got %+v, want none", recs)
	}
}

func TestSynthesize_HighDeltaTargetsMetric(t *testing.T) {
	// WHAT: Each high-severity delta draws a finding naming the metric;
	// medium deltas do not.
	// WHY: High deltas are the directly actionable comparator output.
	s := NewSynthesizer(nil, 0)
	recs := s.Synthesize(nil, ComparisonReport{
		PerMetricDeltas: []MetricDelta{
			{Metric: "load_ms", ProfileA: "desktop", ProfileB: "mobile", Delta: 3400, Severity: SeverityHigh},
			{Metric: "request_count", ProfileA: "desktop", ProfileB: "mobile", Delta: 40, Severity: SeverityMedium},
		},
	})

	if len(recs) != 1 {
		t.Fatalf("got %d recs, want 1 (high only)", len(recs))
	}
	if !strings.Contains(recs[0].Title, "load_ms") {
		t.Errorf("rec does not name the metric: %q", recs[0].Title)
	}
}

func TestSynthesize_CapAndStableOrder(t *testing.T) {
	// WHAT: Output is capped at 5 and sorted high before medium before low,
	// with ties keeping rule-evaluation order.
	// WHY: The report renders a bounded top-N; determinism keeps snapshots
	// stable.
	results := []NormalizedResult{
		okResult("p1", 65, nil),
		okResult("p2", 66, nil),
		okResult("p3", 67, nil),
		okResult("p4", 30, nil),
	}
	cmp := ComparisonReport{
		MaxGap: 37,
		PerMetricDeltas: []MetricDelta{
			{Metric: "load_ms", Delta: 3500, Severity: SeverityHigh},
			{Metric: "first_paint_ms", Delta: 2600, Severity: SeverityHigh},
		},
	}
	recs := NewSynthesizer(nil, 0).Synthesize(results, cmp)

	if len(recs) != 5 {
		t.Fatalf("got %d recs, want capped 5", len(recs))
	}
	lastRank := -1
	for i, r := range recs {
		rank := priorityRank(r.Priority)
		if rank < lastRank {
			t.Errorf("rec %d (%s) out of priority order", i, r.Priority)
		}
		lastRank = rank
	}
	// High-priority ties keep rule order: low-score (p4) before divergence
	// before the two delta findings.
	if !strings.Contains(recs[0].Title, "p4") {
		t.Errorf("recs[0] = %q, want the p4 low-score finding first", recs[0].Title)
	}
	if !strings.Contains(recs[1].Title, "divergence") {
		t.Errorf("recs[1] = %q, want divergence second", recs[1].Title)
	}
	if !strings.Contains(recs[2].Title, "load_ms") || !strings.Contains(recs[3].Title, "first_paint_ms") {
		t.Errorf("delta findings out of input order: %q, %q", recs[2].Title, recs[3].Title)
	}
}

func TestSynthesize_CustomCap(t *testing.T) {
	// WHAT: A custom cap bounds the list.
	// WHY: Report tiers render different top-N sizes.
	results := []NormalizedResult{
		okResult("p1", 10, nil),
		okResult("p2", 10, nil),
		okResult("p3", 10, nil),
	}
	recs := NewSynthesizer(nil, 2).Synthesize(results, ComparisonReport{})
	if len(recs) != 2 {
		t.Errorf("got %d recs, want 2", len(recs))
	}
}
