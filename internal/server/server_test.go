package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"library-converter/internal/metrics"
	"library-converter/internal/pipeline"
	"library-converter/internal/startup"
)

type staticSource struct {
	started bool
	summary pipeline.Summary
	busy    int
}

func (s staticSource) Started() bool { return s.started }

func (s staticSource) Snapshot() pipeline.Summary { return s.summary }

func (s staticSource) Progress() metrics.Progress {
	return metrics.Progress{Total: s.summary.Total, Busy: s.busy}
}

func serve(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	s := New("0", nil)

	rec := serve(t, s, http.MethodGet, "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "healthy" {
		t.Errorf("Status = %q, want healthy", resp.Status)
	}
	if resp.Version != startup.Version {
		t.Errorf("Version = %q, want %q", resp.Version, startup.Version)
	}

	head := serve(t, s, http.MethodHead, "/healthz")
	if head.Code != http.StatusOK || head.Body.Len() != 0 {
		t.Errorf("HEAD = %d with %d body bytes, want 200 and no body", head.Code, head.Body.Len())
	}
}

func TestProgressNotStarted(t *testing.T) {
	rec := serve(t, New("0", nil), http.MethodGet, "/progress")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestProgressBeforeRunStarts(t *testing.T) {
	source := staticSource{summary: pipeline.Summary{Total: 10}}

	rec := serve(t, New("0", source), http.MethodGet, "/progress")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not_started") {
		t.Errorf("body = %q, want not_started", rec.Body.String())
	}
}

func TestProgress(t *testing.T) {
	source := staticSource{
		started: true,
		summary: pipeline.Summary{
			Total: 10,
			Counts: map[pipeline.Status]int{
				pipeline.StatusSuccess: 3,
				pipeline.StatusSkipped: 2,
			},
			SkipReasons:         map[pipeline.SkipReason]int{pipeline.ReasonOutputLarger: 2},
			ReplacedInputBytes:  3000,
			ReplacedOutputBytes: 1200,
			Elapsed:             90 * time.Second,
		},
		busy: 2,
	}

	rec := serve(t, New("0", source), http.MethodGet, "/progress")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp ProgressResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Total != 10 || resp.Completed != 5 || resp.BusyWorkers != 2 {
		t.Errorf("progress = %d/%d busy %d, want 5/10 busy 2", resp.Completed, resp.Total, resp.BusyWorkers)
	}
	if resp.Counts["success"] != 3 || resp.SkipReasons["output_larger"] != 2 {
		t.Errorf("counts = %v, reasons = %v", resp.Counts, resp.SkipReasons)
	}
	if resp.SavedBytes != 1800 || resp.SavedPercent != 60 {
		t.Errorf("saved = %d (%.1f%%), want 1800 (60%%)", resp.SavedBytes, resp.SavedPercent)
	}
	if resp.ElapsedSeconds != 90 {
		t.Errorf("ElapsedSeconds = %v, want 90", resp.ElapsedSeconds)
	}
}

func TestVersion(t *testing.T) {
	rec := serve(t, New("0", nil), http.MethodGet, "/version")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info startup.BuildInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != startup.Version || info.GoVersion == "" {
		t.Errorf("build info = %+v", info)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.InitializeMetrics()

	rec := serve(t, New("0", nil), http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "library_converter_assets_processed_total") {
		t.Error("metrics output missing library_converter_assets_processed_total")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := serve(t, New("0", nil), http.MethodPost, "/progress")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestStartAndShutdown(t *testing.T) {
	s := New("0", nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Shutdown(t.Context()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestRequestsAreCountedByRoute(t *testing.T) {
	s := New("0", nil)
	counter := metrics.StatusRequestsTotal.WithLabelValues("GET", "/version", "200")
	before := testutil.ToFloat64(counter)

	serve(t, s, http.MethodGet, "/version")
	serve(t, s, http.MethodGet, "/version")

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("StatusRequestsTotal{/version} increased by %v, want 2", got)
	}
}
