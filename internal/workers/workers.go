package workers

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Auto is the concurrency value that asks for CPU-based sizing.
const Auto = "auto"

// Count scales GOMAXPROCS by multiplier, so container CPU limits are
// respected. The result is at least 1 and at most limit (0 = no limit).
func Count(multiplier float64, limit int) int {
	n := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// ForMixed returns worker count for mixed tasks (1.5 per CPU).
// Asset conversion downloads, runs an encoder and uploads, so the pipeline
// uses this sizing when concurrency is "auto".
func ForMixed(limit int) int {
	return Count(1.5, limit)
}

// Resolve turns a configured concurrency value into a worker count.
// "auto" sizes the pool with ForMixed; any other value must be a
// positive integer.
func Resolve(value string, limit int) (int, error) {
	value = strings.TrimSpace(value)
	if strings.EqualFold(value, Auto) {
		return ForMixed(limit), nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid concurrency %q: must be a positive integer or %q", value, Auto)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid concurrency %d: must be at least 1", n)
	}
	return n, nil
}
