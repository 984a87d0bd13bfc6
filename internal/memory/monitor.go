package memory

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"library-converter/internal/logging"
	"library-converter/internal/metrics"
)

// Config holds backpressure thresholds.
type Config struct {
	// LimitBytes is the reference limit (0 = use the Go memory limit)
	LimitBytes int64

	// ResumeRatio is the usage below which a paused dispatch resumes (0.0-1.0)
	ResumeRatio float64

	// PauseRatio is the usage at which dispatch pauses (0.0-1.0)
	PauseRatio float64

	// CheckInterval is how often usage is sampled
	CheckInterval time.Duration
}

// DefaultConfig returns the thresholds used by the converter.
func DefaultConfig() Config {
	return Config{
		ResumeRatio:   0.7,
		PauseRatio:    0.85,
		CheckInterval: 2 * time.Second,
	}
}

// Monitor samples heap usage and holds back new work while usage is
// critical. Work already running is never interrupted.
type Monitor struct {
	config    Config
	limit     int64
	readAlloc func() uint64

	mu       sync.RWMutex
	current  uint64
	paused   bool
	resumed  chan struct{}
	started  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewMonitor creates a monitor. Without an explicit or Go memory limit it
// never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < 1<<62 {
			limit = goMemLimit
		}
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultConfig().CheckInterval
	}

	return &Monitor{
		config:    config,
		limit:     limit,
		readAlloc: heapAlloc,
		resumed:   make(chan struct{}),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}

// Enabled reports whether the monitor has a limit to enforce.
func (m *Monitor) Enabled() bool {
	return m.limit > 0
}

// Start begins sampling. It is a no-op without a limit.
func (m *Monitor) Start() {
	m.started = true
	if !m.Enabled() {
		logging.Debug("Memory monitor disabled: no memory limit configured")
		close(m.done)
		return
	}
	logging.Debug("Memory monitor started, limit %s", formatBytes(m.limit))
	go m.monitorLoop()
}

// Stop ends sampling and releases any waiters.
func (m *Monitor) Stop() {
	close(m.stopChan)
	if m.started {
		<-m.done
	}
}

func (m *Monitor) monitorLoop() {
	defer close(m.done)

	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check()
		case <-m.stopChan:
			return
		}
	}
}

// check samples usage once and updates the paused state.
func (m *Monitor) check() {
	alloc := m.readAlloc()
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = alloc

	switch {
	case !m.paused && usage >= m.config.PauseRatio:
		logging.Warn("Memory critical (%.0f%% of limit), pausing dispatch", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryPausesTotal.Inc()
		go runtime.GC()
	case m.paused && usage < m.config.ResumeRatio:
		logging.Info("Memory recovered (%.0f%% of limit), resuming dispatch", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resumed)
		m.resumed = make(chan struct{})
	}
}

// Wait blocks while dispatch is paused. It returns false if ctx ends or the
// monitor stops first.
func (m *Monitor) Wait(ctx context.Context) bool {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return true
	}
	resumed := m.resumed
	m.mu.RUnlock()

	logging.Debug("Dispatch waiting for memory to recover")
	select {
	case <-resumed:
		return true
	case <-ctx.Done():
		return false
	case <-m.stopChan:
		return false
	}
}

// Paused reports whether dispatch is currently held back.
func (m *Monitor) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled usage as a fraction of the limit.
func (m *Monitor) Usage() float64 {
	if !m.Enabled() {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return float64(m.current) / float64(m.limit)
}
