package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewScratch(t *testing.T) {
	tests := []struct {
		name    string
		assetID string
		target  string
		wantIn  string
		wantOut string
	}{
		{
			name:    "plain id",
			assetID: "abc-123",
			target:  "jxl",
			wantIn:  "/work/in/abc-123.bin",
			wantOut: "/work/out/abc-123.jxl",
		},
		{
			name:    "video",
			assetID: "v1",
			target:  "mp4",
			wantIn:  "/work/in/v1.bin",
			wantOut: "/work/out/v1.mp4",
		},
		{
			name:    "traversal is stripped",
			assetID: "../../etc/passwd",
			target:  "jxl",
			wantIn:  "/work/in/passwd.bin",
			wantOut: "/work/out/passwd.jxl",
		},
		{
			name:    "backslashes are stripped",
			assetID: `..\..\evil`,
			target:  "jxl",
			wantIn:  "/work/in/evil.bin",
			wantOut: "/work/out/evil.jxl",
		},
		{
			name:    "dot-dot alone",
			assetID: "..",
			target:  "mp4",
			wantIn:  "/work/in/asset.bin",
			wantOut: "/work/out/asset.mp4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScratch("/work", tt.assetID, tt.target)
			if s.InputPath != tt.wantIn {
				t.Errorf("InputPath = %q, want %q", s.InputPath, tt.wantIn)
			}
			if s.OutputPath != tt.wantOut {
				t.Errorf("OutputPath = %q, want %q", s.OutputPath, tt.wantOut)
			}
		})
	}
}

func TestScratchDistinctAssets(t *testing.T) {
	a := NewScratch("/work", "one", "jxl")
	b := NewScratch("/work", "two", "jxl")
	if a.InputPath == b.InputPath || a.OutputPath == b.OutputPath {
		t.Errorf("distinct assets share scratch paths: %+v %+v", a, b)
	}
}

func TestScratchCleanup(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureLayout(dir); err != nil {
		t.Fatalf("EnsureLayout() error = %v", err)
	}

	s := NewScratch(dir, "asset1", "jxl")
	if err := os.WriteFile(s.InputPath, []byte("in"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.OutputPath, []byte("out"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	for _, p := range []string{s.InputPath, s.OutputPath} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s still exists after Cleanup", p)
		}
	}

	// Second cleanup is a no-op
	if err := s.Cleanup(); err != nil {
		t.Errorf("second Cleanup() error = %v", err)
	}
}

func TestScratchRemoveOutputKeepsInput(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureLayout(dir); err != nil {
		t.Fatal(err)
	}
	s := NewScratch(dir, "asset2", "mp4")
	if err := os.WriteFile(s.InputPath, []byte("in"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.OutputPath, []byte("out"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.RemoveOutput(); err != nil {
		t.Fatalf("RemoveOutput() error = %v", err)
	}
	if _, err := os.Stat(s.InputPath); err != nil {
		t.Errorf("input removed: %v", err)
	}
	if _, err := os.Stat(s.OutputPath); !os.IsNotExist(err) {
		t.Error("output still exists")
	}
}

func TestEnsureLayout(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureLayout(dir); err != nil {
		t.Fatalf("EnsureLayout() error = %v", err)
	}
	for _, sub := range []string{"in", "out"} {
		info, err := os.Stat(filepath.Join(dir, sub))
		if err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", sub, err)
		}
	}

	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	err := EnsureLayout(blocker)
	if err == nil || !strings.Contains(err.Error(), "failed to create") {
		t.Errorf("EnsureLayout(file) error = %v, want creation failure", err)
	}
}

func TestFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, make([]byte, 1234), 0o644); err != nil {
		t.Fatal(err)
	}
	size, err := FileSize(path)
	if err != nil || size != 1234 {
		t.Errorf("FileSize() = %d, %v; want 1234, nil", size, err)
	}
}
