package transcoder

import (
	"context"
	"os"
	"strconv"
	"strings"

	"library-converter/internal/logging"
	"library-converter/internal/sniff"
	"library-converter/internal/tools"
)

// nonEmptyFile reports whether path is a regular file with content.
func nonEmptyFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}

// ValidateImage reports whether path exists, is non-empty and sniffs as expected.
func ValidateImage(path, expected string) bool {
	if !nonEmptyFile(path) {
		return false
	}
	format, ok := sniff.DetectFormat(path)
	return ok && format == expected
}

// ValidateVideo reports whether path exists, is non-empty and ffprobe reports
// a positive container duration.
func ValidateVideo(ctx context.Context, runner tools.Runner, path string) bool {
	if !nonEmptyFile(path) {
		return false
	}

	out, err := runner.Run(ctx, ProbeTimeout, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		logging.Debug("ffprobe duration check failed for %s: %v", path, err)
		return false
	}

	value := strings.TrimSpace(string(out))
	if value == "" || value == "N/A" {
		return false
	}
	duration, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	return duration > 0
}
