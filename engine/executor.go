package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Session is an isolated browsing context configured for one profile. The
// concrete type is owned by the SessionProvider; extractors downcast to the
// provider's session type.
type Session interface {
	// Navigate loads the target URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error
}

// SessionProvider is the external browser collaborator. WithSession acquires
// a session configured per the profile (viewport, device emulation,
// throttling), runs fn, and releases the session on every exit path,
// including error and panic paths. The provider owns its own concurrency
// bound; the engine makes no assumption about how many sessions run at once.
type SessionProvider interface {
	WithSession(ctx context.Context, p Profile, fn func(ctx context.Context, s Session) error) error
}

// Extractor performs the profile-specific metric extraction inside an
// acquired session. The returned metrics bag is source-specific; a Normalizer
// turns it into canonical sub-scores.
type Extractor interface {
	Extract(ctx context.Context, s Session, p Profile) (RawMetrics, error)
}

// executor wraps one profile's analysis: scoped session, navigation,
// extraction, per-profile timeout. Failures are converted into structured
// results, never propagated — from the dispatcher's point of view, failures
// are data.
type executor struct {
	provider SessionProvider
	extract  Extractor
	timeout  time.Duration
	logger   *slog.Logger
}

func (e *executor) run(ctx context.Context, p Profile, target string) RawProfileResult {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	var rm RawMetrics

	err := e.provider.WithSession(ctx, p, func(ctx context.Context, s Session) error {
		if err := s.Navigate(ctx, target); err != nil {
			return fmt.Errorf("navigate: %w", err)
		}
		var xerr error
		rm, xerr = e.extract.Extract(ctx, s, p)
		if xerr != nil {
			return fmt.Errorf("extract: %w", xerr)
		}
		return nil
	})

	now := time.Now()
	if err != nil {
		e.logger.Warn("engine: profile analysis failed",
			"profile", p.Key, "target", target, "elapsed", time.Since(start), "error", err)
		return RawProfileResult{
			ProfileKey: p.Key,
			Success:    false,
			Error:      err.Error(),
			Timestamp:  now,
		}
	}

	e.logger.Debug("engine: profile analysis done",
		"profile", p.Key, "target", target, "elapsed", time.Since(start))
	return RawProfileResult{
		ProfileKey: p.Key,
		Success:    true,
		Metrics:    rm.Metrics,
		Details:    rm.Details,
		Timestamp:  now,
	}
}
