package engine

import (
	"sort"
	"time"
)

// Report is the root aggregate of one analysis run. It is created once per
// request, immutable after the pipeline completes, and owned by the caller.
type Report struct {
	Timestamp       time.Time                   `json:"timestamp"`
	URL             string                      `json:"url"`
	Profiles        map[string]NormalizedResult `json:"profiles"`
	Comparison      ComparisonReport            `json:"comparison"`
	OverallScore    int                         `json:"overall_score"`
	Recommendations []Recommendation            `json:"recommendations"`
	DurationMs      int64                       `json:"duration_ms"`
}

// Partial reports whether any profile in the report failed while at least one
// succeeded. The report layer renders this state distinctly from full success
// and from total failure.
func (r *Report) Partial() bool {
	var failed, succeeded bool
	for _, p := range r.Profiles {
		if p.Success {
			succeeded = true
		} else {
			failed = true
		}
	}
	return failed && succeeded
}

// Summary is the condensed view handed to dashboards.
type Summary struct {
	OverallScore     int                `json:"overall_score"`
	TestedProfiles   []string           `json:"tested_profiles"`
	TopIssues        []string           `json:"top_issues"`
	PerProfileScores map[string]float64 `json:"per_profile_scores"`
}

// Summarize condenses a report: tested profile keys (sorted), the
// recommendation titles in ranked order, and each profile's primary-dimension
// score.
func Summarize(r *Report, primaryDimension string) Summary {
	if primaryDimension == "" {
		primaryDimension = DimPerformance
	}
	s := Summary{
		OverallScore:     r.OverallScore,
		PerProfileScores: make(map[string]float64, len(r.Profiles)),
	}
	for key, p := range r.Profiles {
		s.TestedProfiles = append(s.TestedProfiles, key)
		s.PerProfileScores[key] = p.SubScores[primaryDimension]
	}
	sort.Strings(s.TestedProfiles)
	for _, rec := range r.Recommendations {
		s.TopIssues = append(s.TopIssues, rec.Title)
	}
	return s
}
