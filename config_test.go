package siteaudit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "siteaudit.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	// WHAT: A YAML file populates the config tree and defaults fill the gaps.
	// WHY: Operators set only what they care about.
	path := writeConfig(t, `
browser:
  remote: ws://127.0.0.1:9222
analysis:
  profile_timeout: 20s
  spread_consistency: true
server:
  addr: ":9000"
store:
  path: /var/lib/siteaudit/reports.db
  retention_days: 14
`)

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Browser.Remote != "ws://127.0.0.1:9222" {
		t.Errorf("remote = %q", cfg.Browser.Remote)
	}
	if cfg.Analysis.ProfileTimeout != 20*time.Second {
		t.Errorf("profile_timeout = %v", cfg.Analysis.ProfileTimeout)
	}
	if !cfg.Analysis.SpreadConsistency {
		t.Error("spread_consistency not set")
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Store.RetentionDays != 14 {
		t.Errorf("retention_days = %d", cfg.Store.RetentionDays)
	}
	// Defaulted fields.
	if cfg.Browser.MaxSessions != 4 {
		t.Errorf("max_sessions = %d, want default 4", cfg.Browser.MaxSessions)
	}
	if cfg.Analysis.RecommendationCap != 5 {
		t.Errorf("recommendation_cap = %d, want default 5", cfg.Analysis.RecommendationCap)
	}
	if cfg.Analysis.Scoring != "gap_penalized" {
		t.Errorf("scoring = %q, want default gap_penalized", cfg.Analysis.Scoring)
	}
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	// WHAT: Missing files and malformed YAML are reported as errors.
	// WHY: A service must fail loudly on a broken config, not run defaults.
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := writeConfig(t, "browser: [not a mapping")
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestConfigRegistry(t *testing.T) {
	// WHAT: Configured profiles replace the builtin table; with no explicit
	// defaults every configured profile is a default.
	// WHY: Deployments tune the device matrix without recompiling.
	path := writeConfig(t, `
profiles:
  - key: kiosk
    label: Kiosk display
    device_class: desktop
    viewport: {width: 1080, height: 1920}
  - key: phone
    label: Budget phone
    device_class: mobile
    viewport: {width: 360, height: 740}
    throttling: slow3g
default_profiles: [phone]
`)
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	reg := cfg.Registry()
	if reg.Len() != 2 {
		t.Fatalf("registry has %d profiles, want 2", reg.Len())
	}
	if got := reg.DefaultKeys(); len(got) != 1 || got[0] != "phone" {
		t.Errorf("default keys = %v, want [phone]", got)
	}
	p, ok := reg.Get("kiosk")
	if !ok || p.Viewport.Width != 1080 {
		t.Errorf("kiosk profile = %+v, ok=%v", p, ok)
	}

	cfg.DefaultProfiles = nil
	if got := cfg.Registry().DefaultKeys(); len(got) != 2 {
		t.Errorf("implicit defaults = %v, want both profiles", got)
	}
}

func TestConfigRegistry_Builtin(t *testing.T) {
	// WHAT: No configured profiles means the builtin device table.
	cfg := DefaultConfig()
	reg := cfg.Registry()
	if _, ok := reg.Get("desktop"); !ok {
		t.Error("builtin registry missing desktop")
	}
	if _, ok := reg.Get("mobile"); !ok {
		t.Error("builtin registry missing mobile")
	}
}

func TestNew_UnknownScoring(t *testing.T) {
	// WHAT: An unrecognized scoring mode fails construction.
	// WHY: A typo should not silently fall back to the default strategy.
	cfg := DefaultConfig()
	cfg.Analysis.Scoring = "median"
	if _, err := New(cfg, nil); err == nil {
		t.Error("expected error for unknown scoring mode")
	}
}
