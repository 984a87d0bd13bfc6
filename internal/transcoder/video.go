package transcoder

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"library-converter/internal/filesystem"
	"library-converter/internal/mediatypes"
	"library-converter/internal/sniff"
	"library-converter/internal/tools"
)

// VideoOptions configures the video handler.
type VideoOptions struct {
	// Preset is the SVT-AV1 speed preset (0-13).
	Preset int
	// MaxDimension caps the shorter side of the output. 0 disables scaling.
	MaxDimension int
	// AudioBitrate is passed to libopus, e.g. "64k".
	AudioBitrate string
}

type videoHandler struct {
	runner tools.Runner
	opts   VideoOptions
}

// NewVideoHandler returns the AV1/MP4 handler.
func NewVideoHandler(runner tools.Runner, opts VideoOptions) Handler {
	return &videoHandler{runner: runner, opts: opts}
}

func (h *videoHandler) Kind() mediatypes.Kind { return mediatypes.KindVideo }

func (h *videoHandler) Target() string { return mediatypes.TargetVideoContainer }

func (h *videoHandler) Detect(ctx context.Context, path string) (string, bool) {
	return sniff.DetectVideoCodec(ctx, h.runner, path)
}

func (h *videoHandler) Validate(ctx context.Context, path string) bool {
	return ValidateVideo(ctx, h.runner, path)
}

// ScaleFilter returns the ffmpeg filter that limits the shorter side to
// maxDimension while keeping the aspect ratio and even dimensions.
func ScaleFilter(maxDimension int) string {
	m := strconv.Itoa(maxDimension)
	return "scale='trunc(if(gt(min(iw,ih)," + m + "),iw*" + m + "/min(iw,ih),iw)/2)*2':" +
		"'trunc(if(gt(min(iw,ih)," + m + "),ih*" + m + "/min(iw,ih),ih)/2)*2'"
}

// ffmpegArgs builds the SVT-AV1 encode command line.
func (h *videoHandler) ffmpegArgs(in, out string, q Quality) []string {
	args := []string{
		"-y",
		"-i", in,
		"-c:v", "libsvtav1",
		"-crf", strconv.Itoa(q.CRF),
		"-preset", strconv.Itoa(h.opts.Preset),
	}

	if h.opts.MaxDimension > 0 {
		args = append(args, "-vf", ScaleFilter(h.opts.MaxDimension))
	}

	return append(args,
		"-pix_fmt", "yuv420p",
		"-c:a", "libopus",
		"-b:a", h.opts.AudioBitrate,
		"-map_metadata", "0",
		"-movflags", "+faststart",
		out,
	)
}

// Transcode re-encodes a video to AV1 in MP4 unless it already is AV1.
func (h *videoHandler) Transcode(ctx context.Context, in, out string, q Quality) Outcome {
	inputBytes, err := filesystem.FileSize(in)
	if err != nil {
		return Outcome{Err: fmt.Errorf("failed to stat input: %w", err)}
	}

	codec, ok := sniff.DetectVideoCodec(ctx, h.runner, in)
	if !ok {
		return Outcome{InputBytes: inputBytes, InputFormat: "unknown", Err: errors.New("could not detect video codec")}
	}

	if codec == mediatypes.TargetVideoCodec {
		return Outcome{AlreadyDone: true, InputBytes: inputBytes, OutputBytes: inputBytes, InputFormat: codec}
	}

	if _, err := h.runner.Run(ctx, VideoTimeout, "ffmpeg", h.ffmpegArgs(in, out, q)...); err != nil {
		return Outcome{InputBytes: inputBytes, InputFormat: codec, Err: err}
	}

	outputBytes, err := filesystem.FileSize(out)
	if err != nil {
		return Outcome{InputBytes: inputBytes, InputFormat: codec, Err: fmt.Errorf("ffmpeg produced no output: %w", err)}
	}

	return Outcome{
		Success:     true,
		InputBytes:  inputBytes,
		OutputBytes: outputBytes,
		InputFormat: codec,
		Strategy:    "ffmpeg",
	}
}
