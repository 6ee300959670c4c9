package metrics

import "github.com/hazyhaar/siteaudit/internal/browser"

// Heuristic 0-100 scorers. Deduction tables rather than curves: each signal
// costs a fixed amount, capped so one noisy signal cannot dominate, and the
// result is clamped to [0,100].

// performanceScore deducts for slow load, late first paint, heavy transfer,
// and request fan-out.
func performanceScore(t *browser.NavTiming) float64 {
	score := 100.0

	// 1 point per 100ms of load time past the first second, up to 50.
	if t.LoadMs > 1000 {
		score -= capAt((t.LoadMs-1000)/100, 50)
	}
	// 1 point per 100ms of first paint past 800ms, up to 25.
	if t.FirstPaintMs > 800 {
		score -= capAt((t.FirstPaintMs-800)/100, 25)
	}
	// 1 point per 4 requests past 30, up to 15.
	if t.RequestCount > 30 {
		score -= capAt((t.RequestCount-30)/4, 15)
	}
	// 1 point per 200KB transferred past 1MB, up to 10.
	if t.TransferKB > 1024 {
		score -= capAt((t.TransferKB-1024)/200, 10)
	}
	return clamp(score)
}

// accessibilityScore deducts for missing alt text, unlabeled controls,
// missing document language, and heading-structure problems.
func accessibilityScore(a DOMAudit) float64 {
	score := 100.0
	score -= capAt(5*float64(a.ImagesMissingAlt), 40)
	score -= capAt(10*float64(a.InputsUnlabeled), 30)
	if !a.HasLang {
		score -= 15
	}
	if a.H1Count != 1 {
		score -= 10
	}
	return clamp(score)
}

// mobileScore deducts for a missing or fixed-width viewport meta tag.
func mobileScore(a DOMAudit) float64 {
	score := 100.0
	if !a.ViewportMeta {
		score -= 40
	}
	if a.FixedWidthMeta {
		score -= 20
	}
	return clamp(score)
}

// securityScore deducts for plain-HTTP delivery, mixed content, and insecure
// form targets.
func securityScore(a DOMAudit) float64 {
	score := 100.0
	if !a.HTTPS {
		score -= 40
	}
	score -= capAt(5*float64(a.InsecureRefs), 40)
	score -= capAt(20*float64(a.InsecureForms), 40)
	return clamp(score)
}

func capAt(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
