// Command siteaudit analyzes websites across device profiles.
//
// Usage:
//
//	siteaudit -url https://example.com                  # one-shot, report on stdout
//	siteaudit -url https://example.com -profiles mobile,desktop
//	siteaudit -serve                                    # HTTP API on :8090
//	siteaudit -serve -config siteaudit.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/siteaudit"
	"github.com/hazyhaar/siteaudit/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to siteaudit.yaml config file")
	targetURL := flag.String("url", "", "analyze a single URL and print the report")
	profiles := flag.String("profiles", "", "comma-separated profile keys (default: config defaults)")
	serve := flag.Bool("serve", false, "run the HTTP API server")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *targetURL, *profiles, *serve); err != nil {
		logger.Error("siteaudit: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, targetURL, profiles string, serve bool) error {
	cfg := siteaudit.DefaultConfig()
	if configPath != "" {
		loaded, err := siteaudit.LoadConfigFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	auditor, err := siteaudit.New(cfg, logger)
	if err != nil {
		return err
	}

	if targetURL != "" {
		return runOnce(ctx, auditor, targetURL, profiles)
	}
	if serve {
		return runServe(ctx, logger, cfg, auditor)
	}

	fmt.Fprintln(os.Stderr, "usage: siteaudit -url <url> [-profiles a,b] | -serve [-config <file>]")
	return fmt.Errorf("no mode selected: pass -url or -serve")
}

func runOnce(ctx context.Context, auditor *siteaudit.Auditor, targetURL, profiles string) error {
	if err := auditor.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer auditor.Stop()

	rep, err := auditor.Analyze(ctx, targetURL, splitProfiles(profiles))
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func runServe(ctx context.Context, logger *slog.Logger, cfg *siteaudit.Config, auditor *siteaudit.Auditor) error {
	if err := auditor.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer auditor.Stop()

	srv := server.New(cfg.Server.Addr, auditor, logger)
	return srv.Start(ctx)
}

func splitProfiles(s string) []string {
	if s == "" {
		return nil
	}
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
