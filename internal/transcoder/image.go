package transcoder

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"library-converter/internal/filesystem"
	"library-converter/internal/logging"
	"library-converter/internal/media"
	"library-converter/internal/mediatypes"
	"library-converter/internal/sniff"
	"library-converter/internal/tools"
)

// ImageOptions configures the image handler.
type ImageOptions struct {
	// VipsFallback enables the in-process libvips encoder as the last strategy.
	VipsFallback bool
}

// strategy is one way of producing a JPEG XL file.
type strategy struct {
	name string
	run  func(ctx context.Context, in, out string, q Quality) error
}

type imageHandler struct {
	runner tools.Runner
	opts   ImageOptions
	// encodeInProcess is media.EncodeJxl outside of tests.
	encodeInProcess func(in, out string, distance float64) error
}

// NewImageHandler returns the JPEG XL handler.
func NewImageHandler(runner tools.Runner, opts ImageOptions) Handler {
	return &imageHandler{
		runner:          runner,
		opts:            opts,
		encodeInProcess: media.EncodeJxl,
	}
}

func (h *imageHandler) Kind() mediatypes.Kind { return mediatypes.KindImage }

func (h *imageHandler) Target() string { return mediatypes.TargetImageFormat }

func (h *imageHandler) Detect(_ context.Context, path string) (string, bool) {
	return sniff.DetectFormat(path)
}

func (h *imageHandler) Validate(_ context.Context, path string) bool {
	return ValidateImage(path, mediatypes.TargetImageFormat)
}

// strategies returns the ordered encoders to try for an input format.
func (h *imageHandler) strategies(format string, q Quality) []strategy {
	var list []strategy

	// Lossless repack ignores distance, so it cannot help a quality retry.
	if format == mediatypes.FormatJPEG && !q.Retry {
		list = append(list, strategy{name: "cjxl", run: h.runCjxl})
	}
	list = append(list, strategy{name: "magick", run: h.runMagick})
	if h.opts.VipsFallback {
		list = append(list, strategy{name: "vips", run: h.runVips})
	}
	return list
}

func (h *imageHandler) runCjxl(ctx context.Context, in, out string, _ Quality) error {
	_, err := h.runner.Run(ctx, ImageTimeout, "cjxl", in, out)
	return err
}

func (h *imageHandler) runMagick(ctx context.Context, in, out string, q Quality) error {
	_, err := h.runner.Run(ctx, ImageTimeout, "magick",
		in,
		"-define", "jxl:distance="+formatDistance(q.Distance),
		out,
	)
	return err
}

func (h *imageHandler) runVips(_ context.Context, in, out string, q Quality) error {
	return h.encodeInProcess(in, out, q.Distance)
}

func formatDistance(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}

// Transcode converts an image to JPEG XL, walking the strategy list until one
// succeeds. Metadata is copied with exiftool afterwards on a best-effort basis.
func (h *imageHandler) Transcode(ctx context.Context, in, out string, q Quality) Outcome {
	inputBytes, err := filesystem.FileSize(in)
	if err != nil {
		return Outcome{Err: fmt.Errorf("failed to stat input: %w", err)}
	}

	format, ok := sniff.DetectFormat(in)
	if !ok {
		return Outcome{InputBytes: inputBytes, InputFormat: "unknown", Err: errors.New("could not detect input format")}
	}

	if format == mediatypes.TargetImageFormat {
		return Outcome{AlreadyDone: true, InputBytes: inputBytes, OutputBytes: inputBytes, InputFormat: format}
	}

	var errs []error
	for _, s := range h.strategies(format, q) {
		if err := ctx.Err(); err != nil {
			return Outcome{InputBytes: inputBytes, InputFormat: format, Err: err}
		}

		if err := s.run(ctx, in, out, q); err != nil {
			logging.Debug("%s failed for %s: %v", s.name, in, err)
			errs = append(errs, err)
			continue
		}

		h.copyMetadata(ctx, in, out)

		outputBytes, err := filesystem.FileSize(out)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s produced no output: %w", s.name, err))
			continue
		}

		if len(errs) > 0 {
			logging.Info("%s succeeded for %s after %d failed strategies", s.name, in, len(errs))
		}

		return Outcome{
			Success:     true,
			InputBytes:  inputBytes,
			OutputBytes: outputBytes,
			InputFormat: format,
			Strategy:    s.name,
		}
	}

	return Outcome{
		InputBytes:  inputBytes,
		InputFormat: format,
		Err:         fmt.Errorf("image conversion failed: %w", errors.Join(errs...)),
	}
}

// copyMetadata copies EXIF/XMP from the original. Failure only loses metadata.
func (h *imageHandler) copyMetadata(ctx context.Context, in, out string) {
	_, err := h.runner.Run(ctx, MetadataTimeout, "exiftool",
		"-overwrite_original",
		"-tagsFromFile", in,
		out,
	)
	if err != nil {
		logging.Warn("Failed to copy metadata for %s, file EXIF may be incomplete: %v", in, err)
	}
}
