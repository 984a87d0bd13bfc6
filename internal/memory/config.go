package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"library-converter/internal/logging"
)

const (
	// DefaultMemoryRatio is the share of the container limit given to the Go
	// heap. The conversion tools run as child processes and libvips allocates
	// outside the heap, so the reserve is larger than for a pure Go service.
	DefaultMemoryRatio = 0.75
)

// ConfigResult holds the result of memory configuration
type ConfigResult struct {
	// Configured indicates whether a Go memory limit is in effect
	Configured bool

	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none"
	Source string

	// ContainerLimit is the parsed MEMORY_LIMIT in bytes (0 if not set)
	ContainerLimit int64

	// GoMemLimit is the effective Go memory limit in bytes (0 if not set)
	GoMemLimit int64

	// Ratio is the share of ContainerLimit used (0 if not applicable)
	Ratio float64
}

// ConfigureFromEnv sets the Go memory limit from the container limit.
// Call it early in main, before significant allocations.
//
// GOMEMLIMIT wins when set. Otherwise MEMORY_LIMIT (bytes, or a Kubernetes
// quantity such as 2Gi or 512M) is scaled by MEMORY_RATIO (default 0.75).
func ConfigureFromEnv() ConfigResult {
	result := ConfigResult{Source: "none"}

	if goMemLimitEnv := os.Getenv("GOMEMLIMIT"); goMemLimitEnv != "" {
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.Source = "GOMEMLIMIT"
			result.GoMemLimit = limit
		}
		logging.Info("  GOMEMLIMIT set via environment: %s", goMemLimitEnv)
		return result
	}

	raw := strings.TrimSpace(os.Getenv("MEMORY_LIMIT"))
	if raw == "" {
		logging.Debug("  MEMORY_LIMIT not set, Go memory limit not configured")
		return result
	}

	memLimit, err := ParseQuantity(raw)
	if err != nil {
		logging.Warn("Ignoring MEMORY_LIMIT: %v", err)
		return result
	}

	ratio := ratioFromEnv()
	goMemLimit := int64(float64(memLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	result.Configured = true
	result.Source = "MEMORY_LIMIT"
	result.ContainerLimit = memLimit
	result.GoMemLimit = goMemLimit
	result.Ratio = ratio

	logging.Info("  [OK] Go memory limit: %s (%.0f%% of %s container limit)",
		formatBytes(goMemLimit), ratio*100, formatBytes(memLimit))
	return result
}

func ratioFromEnv() float64 {
	raw := strings.TrimSpace(os.Getenv("MEMORY_RATIO"))
	if raw == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio <= 0 || ratio > 1 {
		logging.Warn("Invalid MEMORY_RATIO %q (want 0-1), using default %.2f", raw, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

var quantitySuffixes = []struct {
	suffix     string
	multiplier int64
}{
	{"Ki", 1 << 10},
	{"Mi", 1 << 20},
	{"Gi", 1 << 30},
	{"Ti", 1 << 40},
	{"K", 1e3},
	{"M", 1e6},
	{"G", 1e9},
	{"T", 1e12},
}

// ParseQuantity parses a byte count with an optional Kubernetes-style
// suffix (Ki, Mi, Gi, Ti, K, M, G, T).
func ParseQuantity(s string) (int64, error) {
	s = strings.TrimSpace(s)
	multiplier := int64(1)
	for _, q := range quantitySuffixes {
		if strings.HasSuffix(s, q.suffix) {
			s = strings.TrimSuffix(s, q.suffix)
			multiplier = q.multiplier
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid memory quantity %q", s)
	}
	if n > math.MaxInt64/multiplier {
		return 0, fmt.Errorf("memory quantity %q overflows", s)
	}
	return n * multiplier, nil
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
