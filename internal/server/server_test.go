package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazyhaar/siteaudit/engine"
	"github.com/hazyhaar/siteaudit/internal/store"
)

// stubAnalyzer serves canned responses.
type stubAnalyzer struct {
	report  *engine.Report
	records []store.Record
	err     error
}

func (a *stubAnalyzer) Analyze(ctx context.Context, target string, profiles []string) (*engine.Report, error) {
	if a.err != nil {
		return nil, a.err
	}
	rep := *a.report
	rep.URL = target
	return &rep, nil
}

func (a *stubAnalyzer) History(ctx context.Context, limit int) ([]store.Record, error) {
	return a.records, a.err
}

func (a *stubAnalyzer) Report(ctx context.Context, id string) (*store.Record, error) {
	for i := range a.records {
		if a.records[i].ID == id {
			return &a.records[i], nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (a *stubAnalyzer) PrimaryDimension() string { return engine.DimPerformance }

func testServer(stub *stubAnalyzer) *httptest.Server {
	return httptest.NewServer(New("127.0.0.1:0", stub, nil).Handler())
}

func sampleEngineReport() *engine.Report {
	return &engine.Report{
		OverallScore: 77,
		Profiles: map[string]engine.NormalizedResult{
			"desktop": {ProfileKey: "desktop", Success: true,
				SubScores: map[string]float64{engine.DimPerformance: 77}},
		},
	}
}

func TestAnalyze_HappyPath(t *testing.T) {
	// WHAT: POST /api/analyze returns the report JSON.
	// WHY: This is the primary external contract.
	ts := testServer(&stubAnalyzer{report: sampleEngineReport()})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/analyze", "application/json",
		strings.NewReader(`{"url":"https://example.com","profiles":["desktop"]}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var rep engine.Report
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.OverallScore != 77 || rep.URL != "https://example.com" {
		t.Errorf("report = %+v", rep)
	}
}

func TestAnalyze_BadRequests(t *testing.T) {
	// WHAT: Missing, relative, and malformed URLs are rejected with 400.
	// WHY: Request validation is the server's job; the engine treats a bad
	// URL as a global failure.
	ts := testServer(&stubAnalyzer{report: sampleEngineReport()})
	defer ts.Close()

	cases := []string{
		`{`,
		`{}`,
		`{"url":"/relative"}`,
		`{"url":"example.com"}`,
	}
	for _, body := range cases {
		resp, err := http.Post(ts.URL+"/api/analyze", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("post %q: %v", body, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestReports_ListAndGet(t *testing.T) {
	// WHAT: The history endpoints list metadata and fetch one report.
	// WHY: Dashboards page through history, then drill into a run.
	stub := &stubAnalyzer{records: []store.Record{
		{ID: "rpt_1", URL: "https://a.test", OverallScore: 90, Report: sampleEngineReport()},
		{ID: "rpt_2", URL: "https://b.test", OverallScore: 40, Report: sampleEngineReport()},
	}}
	ts := testServer(stub)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/reports")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var records []store.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	resp, err = http.Get(ts.URL + "/api/reports/rpt_2")
	if err != nil {
		t.Fatalf("get one: %v", err)
	}
	var rec store.Record
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode one: %v", err)
	}
	resp.Body.Close()
	if rec.ID != "rpt_2" || rec.OverallScore != 40 {
		t.Errorf("record = %+v", rec)
	}

	resp, err = http.Get(ts.URL + "/api/reports/rpt_missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing report: status = %d, want 404", resp.StatusCode)
	}
}

func TestReportSummary(t *testing.T) {
	// WHAT: The summary endpoint condenses a stored report.
	// WHY: Dashboards want scores and titles without the full body.
	stub := &stubAnalyzer{records: []store.Record{
		{ID: "rpt_1", Report: sampleEngineReport()},
	}}
	ts := testServer(stub)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/reports/rpt_1/summary")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var sum engine.Summary
	if err := json.NewDecoder(resp.Body).Decode(&sum); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sum.OverallScore != 77 || sum.PerProfileScores["desktop"] != 77 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestHealth(t *testing.T) {
	// WHAT: /health reports the service name.
	// WHY: Deployment probes hit it unauthenticated.
	ts := testServer(&stubAnalyzer{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["service"] != "siteaudit" {
		t.Errorf("body = %v", body)
	}
}
