package transcoder

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateImage(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		path     string
		expected string
		want     bool
	}{
		{"valid jxl", write(t, dir, "ok.jxl", jxlBytes), "jxl", true},
		{"missing", filepath.Join(dir, "missing.jxl"), "jxl", false},
		{"zero length", write(t, dir, "empty.jxl", nil), "jxl", false},
		{"wrong format", write(t, dir, "png.jxl", pngData), "jxl", false},
		{"unrecognized", write(t, dir, "junk.jxl", []byte("junk")), "jxl", false},
		{"directory", dir, "jxl", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateImage(tt.path, tt.expected); got != tt.want {
				t.Errorf("ValidateImage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateVideo(t *testing.T) {
	dir := t.TempDir()
	good := write(t, dir, "good.mp4", mp4Data)

	tests := []struct {
		name      string
		path      string
		duration  string
		failProbe bool
		want      bool
	}{
		{name: "positive duration", path: good, duration: "12.345\n", want: true},
		{name: "N/A sentinel", path: good, duration: "N/A\n", want: false},
		{name: "zero duration", path: good, duration: "0.000000", want: false},
		{name: "empty output", path: good, duration: "", want: false},
		{name: "garbage", path: good, duration: "abc", want: false},
		{name: "probe fails", path: good, failProbe: true, want: false},
		{name: "missing file", path: filepath.Join(dir, "nope.mp4"), duration: "10", want: false},
		{name: "zero length", path: write(t, dir, "empty.mp4", nil), duration: "10", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeRunner()
			r.probeOut["duration"] = tt.duration
			if tt.failProbe {
				r.fail["ffprobe"] = exitErr("ffprobe")
			}
			if got := ValidateVideo(context.Background(), r, tt.path); got != tt.want {
				t.Errorf("ValidateVideo() = %v, want %v", got, tt.want)
			}
		})
	}
}
