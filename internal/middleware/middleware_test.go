package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"library-converter/internal/metrics"
)

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "/progress", "/progress"},
		{"newline", "/a\nFAKE LINE", "/a FAKE LINE"},
		{"carriage return", "/a\r\nb", "/a  b"},
		{"null byte", "/a\x00b", "/ab"},
		{"ansi escape", "\x1b[31mred", "[31mred"},
		{"tab kept", "a\tb", "a\tb"},
		{"delete char", "a\x7fb", "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogField(tt.input); got != tt.want {
				t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatW3C(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/progress?x=1", nil)
	req.RemoteAddr = "10.0.0.5:43210"
	req.Header.Set("User-Agent", "Prometheus/2.0 (scraper)")

	now := time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC)
	got := formatW3C(now, req, 200, 512, 15*time.Millisecond)

	want := `2024-03-01 12:30:45 10.0.0.5 GET /progress x=1 200 512 15 "Prometheus/2.0 (scraper)"`
	if got != want {
		t.Errorf("formatW3C() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatW3CDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "127.0.0.1:1"

	got := formatW3C(time.Now(), req, 204, 0, 0)
	if !strings.HasSuffix(got, "127.0.0.1 GET /healthz - 204 0 0 -") {
		t.Errorf("formatW3C() = %q", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "192.168.1.2:5555", "192.168.1.2"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, "9.9.9.9:1", "1.1.1.1"},
		{"real ip", map[string]string{"X-Real-IP": "3.3.3.3"}, "9.9.9.9:1", "3.3.3.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	config := LoggingConfig{SkipPaths: []string{"/metrics"}}

	if !shouldSkip("/metrics", config) {
		t.Error("/metrics should be skipped")
	}
	if !shouldSkip("/healthz", config) {
		t.Error("/healthz should be skipped when LogHealthChecks is false")
	}
	if shouldSkip("/progress", config) {
		t.Error("/progress should be logged")
	}

	config.LogHealthChecks = true
	if shouldSkip("/healthz", config) {
		t.Error("/healthz should be logged when LogHealthChecks is true")
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/progress", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestResponseWriterCapturesStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte("abc"))
	_, _ = rw.Write([]byte("de"))

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want first status", rw.statusCode)
	}
	if rw.bytesWritten != 5 {
		t.Errorf("bytesWritten = %d, want 5", rw.bytesWritten)
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics)
	r.HandleFunc("/runs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}).Methods(http.MethodGet)

	counter := metrics.StatusRequestsTotal.WithLabelValues("GET", "/runs/{id}", "202")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+id, nil))
	}

	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("requests under /runs/{id} increased by %v, want 3", got)
	}
}

func TestRouteTemplateUnmatched(t *testing.T) {
	if got := routeTemplate(httptest.NewRequest(http.MethodGet, "/nowhere", nil)); got != "unmatched" {
		t.Errorf("routeTemplate() = %q, want unmatched", got)
	}
}
