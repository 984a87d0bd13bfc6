package pipeline

import (
	"fmt"
	"sort"
	"time"

	"library-converter/internal/catalog"
	"library-converter/internal/logging"
)

// Reporter receives human-facing progress for a run. Implementations must be
// safe for concurrent use; every worker reports through the same value.
type Reporter interface {
	Debugf(asset catalog.Asset, format string, args ...interface{})
	Infof(asset catalog.Asset, format string, args ...interface{})
	Warnf(asset catalog.Asset, format string, args ...interface{})
	Errorf(asset catalog.Asset, format string, args ...interface{})
	Progress(completed, total int)
	Summary(s Summary)
}

// LogReporter writes through the logging package, prefixing asset lines
// with the original file name.
type LogReporter struct{}

// NewLogReporter returns the default reporter.
func NewLogReporter() LogReporter {
	return LogReporter{}
}

func (LogReporter) logger(asset catalog.Asset) logging.Logger {
	name := asset.OriginalFileName
	if name == "" {
		name = asset.ID
	}
	return logging.With(name + ":")
}

func (r LogReporter) Debugf(asset catalog.Asset, format string, args ...interface{}) {
	r.logger(asset).Debug(format, args...)
}

func (r LogReporter) Infof(asset catalog.Asset, format string, args ...interface{}) {
	r.logger(asset).Info(format, args...)
}

func (r LogReporter) Warnf(asset catalog.Asset, format string, args ...interface{}) {
	r.logger(asset).Warn(format, args...)
}

func (r LogReporter) Errorf(asset catalog.Asset, format string, args ...interface{}) {
	r.logger(asset).Error(format, args...)
}

func (LogReporter) Progress(completed, total int) {
	pct := 100.0
	if total > 0 {
		pct = float64(completed) / float64(total) * 100
	}
	logging.Info("Progress: %d/%d (%.0f%%)", completed, total, pct)
}

func (LogReporter) Summary(s Summary) {
	logging.Info("==================================================")
	logging.Info("Summary:")

	statuses := make([]string, 0, len(s.Counts))
	for status := range s.Counts {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		logging.Info("  %s: %d", status, s.Counts[Status(status)])
	}

	if len(s.SkipReasons) > 0 {
		reasons := make([]string, 0, len(s.SkipReasons))
		for reason := range s.SkipReasons {
			reasons = append(reasons, string(reason))
		}
		sort.Strings(reasons)
		logging.Info("Skip reasons:")
		for _, reason := range reasons {
			logging.Info("  %s: %d", reason, s.SkipReasons[SkipReason(reason)])
		}
	}

	logging.Info("Input:  %s", formatBytes(s.ReplacedInputBytes))
	logging.Info("Output: %s", formatBytes(s.ReplacedOutputBytes))
	logging.Info("Saved:  %s (%.1f%%)", formatSignedBytes(s.SavedBytes()), s.SavedPercent())
	logging.Info("Elapsed: %v", s.Elapsed.Round(time.Second))
}

// formatBytes renders a byte count with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatSignedBytes(n int64) string {
	if n < 0 {
		return "-" + formatBytes(-n)
	}
	return formatBytes(n)
}
