// Package server exposes the auditor over HTTP: analysis requests, report
// history, and health. Routing is chi; all responses are JSON.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/siteaudit/engine"
	"github.com/hazyhaar/siteaudit/internal/store"
)

// Analyzer runs analyses and serves stored reports. Implemented by the root
// Auditor.
type Analyzer interface {
	Analyze(ctx context.Context, target string, profiles []string) (*engine.Report, error)
	History(ctx context.Context, limit int) ([]store.Record, error)
	Report(ctx context.Context, id string) (*store.Record, error)
	PrimaryDimension() string
}

// Server is the HTTP front of the auditor.
type Server struct {
	analyzer Analyzer
	logger   *slog.Logger
	srv      *http.Server
}

// New creates a Server listening on addr.
func New(addr string, analyzer Analyzer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{analyzer: analyzer, logger: logger}

	r := chi.NewRouter()
	r.Use(s.requestLog)

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/reports", s.handleListReports)
		r.Get("/reports/{id}", s.handleGetReport)
		r.Get("/reports/{id}/summary", s.handleReportSummary)
	})

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the underlying router, for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server: listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

type analyzeRequest struct {
	URL      string   `json:"url"`
	Profiles []string `json:"profiles,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	if u, err := url.Parse(req.URL); err != nil || !u.IsAbs() || u.Host == "" {
		writeError(w, http.StatusBadRequest, "url must be absolute")
		return
	}

	rep, err := s.analyzer.Analyze(r.Context(), req.URL, req.Profiles)
	if err != nil {
		s.logger.Error("server: analyze failed", "url", req.URL, "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := s.analyzer.History(r.Context(), limit)
	if err != nil {
		s.logger.Error("server: list reports failed", "error", err)
		writeError(w, http.StatusInternalServerError, "listing failed")
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rec, err := s.analyzer.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	rec, err := s.analyzer.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, engine.Summarize(rec.Report, s.analyzer.PrimaryDimension()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "siteaudit"})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("server: request",
			"method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("server: encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
