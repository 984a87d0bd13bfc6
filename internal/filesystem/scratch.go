package filesystem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	inputDir  = "in"
	outputDir = "out"
)

// Scratch holds the per-asset temporary paths inside the work directory.
type Scratch struct {
	InputPath  string
	OutputPath string
	retry      RetryConfig
}

// NewScratch returns the scratch paths for one asset:
// <workdir>/in/<id>.bin and <workdir>/out/<id>.<target>.
// The asset id is reduced to its base name so it cannot escape the work directory.
func NewScratch(workdir, assetID, target string) Scratch {
	name := sanitizeID(assetID)
	return Scratch{
		InputPath:  filepath.Join(workdir, inputDir, name+".bin"),
		OutputPath: filepath.Join(workdir, outputDir, name+"."+target),
		retry:      DefaultRetryConfig(),
	}
}

func sanitizeID(id string) string {
	base := filepath.Base(strings.ReplaceAll(id, "\\", "/"))
	if base == "." || base == "/" || base == ".." || base == "" {
		return "asset"
	}
	return base
}

// Cleanup removes both scratch files. Missing files are not an error.
func (s Scratch) Cleanup() error {
	var errs []error
	for _, path := range []string{s.InputPath, s.OutputPath} {
		if _, err := RemoveWithRetry(path, s.retry); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// RemoveOutput deletes only the converted file, leaving the download in place
// for another encoding attempt.
func (s Scratch) RemoveOutput() error {
	_, err := RemoveWithRetry(s.OutputPath, s.retry)
	return err
}

// FileSize returns the size of path in bytes.
func FileSize(path string) (int64, error) {
	info, err := StatWithRetry(path, DefaultRetryConfig())
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// EnsureLayout creates the in/ and out/ subdirectories of workdir.
func EnsureLayout(workdir string) error {
	for _, dir := range []string{inputDir, outputDir} {
		path := filepath.Join(workdir, dir)
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
	}
	return nil
}
