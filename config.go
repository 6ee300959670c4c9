package siteaudit

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/siteaudit/engine"
)

// Config is the top-level siteaudit configuration.
type Config struct {
	Browser  BrowserConfig    `yaml:"browser"`
	Profiles []engine.Profile `yaml:"profiles"`

	// DefaultProfiles is the subset analyzed when a request names none.
	DefaultProfiles []string `yaml:"default_profiles"`

	Analysis AnalysisConfig `yaml:"analysis"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
}

// BrowserConfig controls the Chrome connection.
type BrowserConfig struct {
	// Remote is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local headless Chrome.
	Remote string `yaml:"remote"`

	// MaxSessions bounds concurrently open tabs. Default: 4.
	MaxSessions int `yaml:"max_sessions"`
}

// AnalysisConfig tunes the engine.
type AnalysisConfig struct {
	// ProfileTimeout bounds each per-profile analysis. Default: 45s.
	ProfileTimeout time.Duration `yaml:"profile_timeout"`

	// GlobalTimeout, when set, bounds the whole fan-out. Zero = disabled.
	GlobalTimeout time.Duration `yaml:"global_timeout"`

	// RecommendationCap bounds the findings list. Default: 5.
	RecommendationCap int `yaml:"recommendation_cap"`

	// Scoring selects the aggregation strategy: "gap_penalized" (default,
	// cross-profile) or "weighted" (multi-dimension single subject).
	Scoring string `yaml:"scoring"`

	// SpreadConsistency switches the consistency formula to the
	// standard-deviation variant when more than two profiles run.
	SpreadConsistency bool `yaml:"spread_consistency"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"` // default ":8090"
}

// StoreConfig controls report history persistence.
type StoreConfig struct {
	// Path of the SQLite database. Empty = history disabled.
	Path string `yaml:"path"`

	// RetentionDays prunes reports older than this at startup. Zero = keep
	// forever.
	RetentionDays int `yaml:"retention_days"`
}

// LoadConfigFile reads a YAML configuration file and applies defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("siteaudit: read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("siteaudit: parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// DefaultConfig returns the zero-file configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Browser.MaxSessions <= 0 {
		c.Browser.MaxSessions = 4
	}
	if c.Analysis.ProfileTimeout <= 0 {
		c.Analysis.ProfileTimeout = 45 * time.Second
	}
	if c.Analysis.RecommendationCap <= 0 {
		c.Analysis.RecommendationCap = 5
	}
	if c.Analysis.Scoring == "" {
		c.Analysis.Scoring = "gap_penalized"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8090"
	}
}

// Registry builds the profile registry: the configured profile table when
// present, the builtin device table otherwise.
func (c *Config) Registry() *engine.Registry {
	if len(c.Profiles) == 0 {
		return engine.BuiltinRegistry()
	}
	defaults := c.DefaultProfiles
	if len(defaults) == 0 {
		// Without explicit defaults, every configured profile runs.
		for _, p := range c.Profiles {
			defaults = append(defaults, p.Key)
		}
	}
	return engine.NewRegistry(c.Profiles, defaults...)
}
