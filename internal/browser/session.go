package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/siteaudit/engine"
)

// Network emulation presets, loosely matched to Chrome devtools' 3G
// profiles. Throughput is bytes per second, latency is added milliseconds.
var throttlePresets = map[engine.Throttling]proto.NetworkEmulateNetworkConditions{
	engine.ThrottleFast3G: {
		Latency:            150,
		DownloadThroughput: 1.6 * 1024 * 1024 / 8,
		UploadThroughput:   750 * 1024 / 8,
	},
	engine.ThrottleSlow3G: {
		Latency:            400,
		DownloadThroughput: 400 * 1024 / 8,
		UploadThroughput:   400 * 1024 / 8,
	},
}

// Provider implements engine.SessionProvider on top of a Manager. One tab is
// opened per acquisition and closed when fn returns, error or not.
type Provider struct {
	mgr *Manager
}

// NewProvider wraps a started Manager.
func NewProvider(mgr *Manager) *Provider {
	return &Provider{mgr: mgr}
}

// WithSession opens a stealth tab configured for the profile, runs fn, and
// closes the tab. The manager's session bound applies; acquisition queues
// when all slots are busy.
func (p *Provider) WithSession(ctx context.Context, prof engine.Profile, fn func(ctx context.Context, s engine.Session) error) error {
	b := p.mgr.Browser()
	if b == nil {
		return fmt.Errorf("browser: no active browser, call Start first")
	}

	if err := p.mgr.acquire(ctx); err != nil {
		return fmt.Errorf("browser: acquire session: %w", err)
	}
	defer p.mgr.release()

	page, err := stealth.Page(b)
	if err != nil {
		return fmt.Errorf("browser: create tab: %w", err)
	}
	defer page.Close()

	if err := emulateProfile(page, prof); err != nil {
		return fmt.Errorf("browser: emulate %s: %w", prof.Key, err)
	}

	return fn(ctx, newSession(page, prof, p.mgr.cfg.Logger))
}

// emulateProfile applies viewport, device class, user agent, and network
// throttling to a fresh tab.
func emulateProfile(page *rod.Page, prof engine.Profile) error {
	mobile := prof.DeviceClass != engine.DeviceDesktop
	scale := 1.0
	if mobile {
		scale = 2.0
	}
	err := proto.EmulationSetDeviceMetricsOverride{
		Width:             prof.Viewport.Width,
		Height:            prof.Viewport.Height,
		DeviceScaleFactor: scale,
		Mobile:            mobile,
	}.Call(page)
	if err != nil {
		return fmt.Errorf("viewport: %w", err)
	}

	if prof.UserAgentHint != "" {
		if err := (proto.NetworkSetUserAgentOverride{UserAgent: prof.UserAgentHint}).Call(page); err != nil {
			return fmt.Errorf("user agent: %w", err)
		}
	}

	if cond, ok := throttlePresets[prof.Throttling]; ok {
		if err := (proto.NetworkEnable{}).Call(page); err != nil {
			return fmt.Errorf("network enable: %w", err)
		}
		if err := cond.Call(page); err != nil {
			return fmt.Errorf("throttle: %w", err)
		}
	}
	return nil
}

// Session is one profile-configured tab. It implements engine.Session; the
// metrics extractor downcasts to reach the richer surface below.
type Session struct {
	page    *rod.Page
	profile engine.Profile
	logger  *slog.Logger
}

func newSession(page *rod.Page, prof engine.Profile, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{page: page, profile: prof, logger: logger}
}

// Navigate loads the URL and waits for the load event. A load-event timeout
// is tolerated: single-page apps often never fire it, and extraction can
// proceed on the settled DOM.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := s.page.Context(ctx).WaitLoad(); err != nil {
		s.logger.Debug("browser: wait load timed out, continuing", "url", url, "error", err)
	}
	return nil
}

// HTML serializes the complete DOM as outer HTML.
func (s *Session) HTML(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: get DOM: %w", err)
	}
	return res.Value.Str(), nil
}

// FinalURL returns the document URL after redirects.
func (s *Session) FinalURL(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.location.href`)
	if err != nil {
		return "", fmt.Errorf("browser: final url: %w", err)
	}
	return res.Value.Str(), nil
}

// NavTiming is the navigation-timing snapshot extracted from the page.
type NavTiming struct {
	LoadMs             float64 `json:"load_ms"`
	DOMContentLoadedMs float64 `json:"dcl_ms"`
	FirstPaintMs       float64 `json:"first_paint_ms"`
	TransferKB         float64 `json:"transfer_kb"`
	RequestCount       float64 `json:"request_count"`
}

// Timing reads the Performance API: navigation entry, first-contentful-paint,
// and the resource entry count. Values are zero when the page exposes no
// entry, never an error.
func (s *Session) Timing(ctx context.Context) (*NavTiming, error) {
	res, err := s.page.Context(ctx).Eval(`() => {
		const out = { load_ms: 0, dcl_ms: 0, first_paint_ms: 0, transfer_kb: 0, request_count: 0 };
		const nav = performance.getEntriesByType('navigation')[0];
		if (nav) {
			out.load_ms = nav.loadEventEnd || nav.domComplete || 0;
			out.dcl_ms = nav.domContentLoadedEventEnd || 0;
			out.transfer_kb = (nav.transferSize || 0) / 1024;
		}
		for (const p of performance.getEntriesByType('paint')) {
			if (p.name === 'first-contentful-paint') out.first_paint_ms = p.startTime;
		}
		const res = performance.getEntriesByType('resource');
		out.request_count = res.length + 1;
		for (const r of res) out.transfer_kb += (r.transferSize || 0) / 1024;
		return JSON.stringify(out);
	}`)
	if err != nil {
		return nil, fmt.Errorf("browser: timing: %w", err)
	}

	var t NavTiming
	if err := json.Unmarshal([]byte(res.Value.Str()), &t); err != nil {
		return nil, fmt.Errorf("browser: timing decode: %w", err)
	}
	return &t, nil
}

// Stylesheets returns the concatenated rule text of every stylesheet the
// document loaded, external ones included. Cross-origin sheets whose rules
// the browser refuses to expose are skipped.
func (s *Session) Stylesheets(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => {
		const parts = [];
		for (const sheet of document.styleSheets) {
			try {
				for (const rule of sheet.cssRules) parts.push(rule.cssText);
			} catch (e) {
				// Cross-origin sheet, rules not readable.
			}
		}
		return parts.join('\n');
	}`)
	if err != nil {
		return "", fmt.Errorf("browser: read stylesheets: %w", err)
	}
	return res.Value.Str(), nil
}

// Profile returns the profile this session was configured for.
func (s *Session) Profile() engine.Profile { return s.profile }
