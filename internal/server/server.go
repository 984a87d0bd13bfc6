package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"library-converter/internal/logging"
	"library-converter/internal/metrics"
	"library-converter/internal/middleware"
	"library-converter/internal/pipeline"
	"library-converter/internal/startup"
)

// ProgressSource exposes the running aggregates of a batch.
type ProgressSource interface {
	// Started reports whether the batch has begun processing.
	Started() bool
	Snapshot() pipeline.Summary
	Progress() metrics.Progress
}

// Server is the optional status server that runs alongside a batch.
type Server struct {
	router   *mux.Router
	srv      *http.Server
	progress ProgressSource
	started  time.Time
}

// New creates a status server listening on port. progress may be nil.
func New(port string, progress ProgressSource) *Server {
	s := &Server{
		progress: progress,
		started:  time.Now(),
	}
	s.router = s.routes()
	s.srv = &http.Server{
		Addr:              ":" + port,
		Handler:           middleware.Logger(middleware.DefaultLoggingConfig())(s.router),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthz", s.HealthCheck).Methods("GET", "HEAD")
	r.HandleFunc("/progress", s.GetProgress).Methods("GET")
	r.HandleFunc("/version", s.GetVersion).Methods("GET")
	return r
}

// Router returns the route table.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start begins serving in the background. Listen errors are returned
// immediately; later serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Status server error: %v", err)
		}
	}()
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// HealthResponse contains the health check response
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck reports that the process is alive.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method == http.MethodHead {
		return
	}

	writeJSON(w, HealthResponse{
		Status:       "healthy",
		Version:      startup.Version,
		Uptime:       time.Since(s.started).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	})
}

// ProgressResponse is a JSON snapshot of the running batch.
type ProgressResponse struct {
	Total          int            `json:"total"`
	Completed      int            `json:"completed"`
	BusyWorkers    int            `json:"busyWorkers"`
	Counts         map[string]int `json:"counts"`
	SkipReasons    map[string]int `json:"skipReasons"`
	InputBytes     int64          `json:"inputBytes"`
	OutputBytes    int64          `json:"outputBytes"`
	SavedBytes     int64          `json:"savedBytes"`
	SavedPercent   float64        `json:"savedPercent"`
	ElapsedSeconds float64        `json:"elapsedSeconds"`
}

// GetProgress returns the current aggregates, or 503 before a run starts.
func (s *Server) GetProgress(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if s.progress == nil || !s.progress.Started() {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{"status": "not_started"})
		return
	}

	summary := s.progress.Snapshot()
	resp := ProgressResponse{
		Total:          summary.Total,
		Completed:      summary.Completed(),
		BusyWorkers:    s.progress.Progress().Busy,
		Counts:         make(map[string]int, len(summary.Counts)),
		SkipReasons:    make(map[string]int, len(summary.SkipReasons)),
		InputBytes:     summary.ReplacedInputBytes,
		OutputBytes:    summary.ReplacedOutputBytes,
		SavedBytes:     summary.SavedBytes(),
		SavedPercent:   summary.SavedPercent(),
		ElapsedSeconds: summary.Elapsed.Seconds(),
	}
	for status, n := range summary.Counts {
		resp.Counts[string(status)] = n
	}
	for reason, n := range summary.SkipReasons {
		resp.SkipReasons[string(reason)] = n
	}

	writeJSON(w, resp)
}

// GetVersion returns the application version and build information
func (s *Server) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, startup.GetBuildInfo())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}
