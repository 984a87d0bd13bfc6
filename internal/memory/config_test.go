package memory

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LimitBytes != 0 {
		t.Errorf("LimitBytes = %d, want 0", cfg.LimitBytes)
	}
	if cfg.ResumeRatio >= cfg.PauseRatio {
		t.Errorf("ResumeRatio %.2f should be below PauseRatio %.2f", cfg.ResumeRatio, cfg.PauseRatio)
	}
	if cfg.PauseRatio <= 0 || cfg.PauseRatio > 1 {
		t.Errorf("PauseRatio = %.2f, want within (0, 1]", cfg.PauseRatio)
	}
	if cfg.CheckInterval <= 0 {
		t.Errorf("CheckInterval = %v, want positive", cfg.CheckInterval)
	}
}

func TestNewMonitorDefaultsCheckInterval(t *testing.T) {
	m := NewMonitor(Config{LimitBytes: 1 << 20, ResumeRatio: 0.5, PauseRatio: 0.9})

	if m.config.CheckInterval != DefaultConfig().CheckInterval {
		t.Errorf("CheckInterval = %v, want default %v", m.config.CheckInterval, DefaultConfig().CheckInterval)
	}
	if !m.Enabled() {
		t.Error("monitor with explicit limit should be enabled")
	}
}

func TestNewMonitorExplicitLimit(t *testing.T) {
	m := NewMonitor(Config{LimitBytes: 100 << 20, CheckInterval: time.Second})
	if m.limit != 100<<20 {
		t.Errorf("limit = %d, want %d", m.limit, 100<<20)
	}
}
