package transcoder

import (
	"context"
	"time"

	"library-converter/internal/mediatypes"
	"library-converter/internal/sniff"
	"library-converter/internal/tools"
)

// Hard per-call timeouts for external tools.
const (
	ImageTimeout    = 600 * time.Second
	VideoTimeout    = 43200 * time.Second
	ProbeTimeout    = sniff.ProbeTimeout
	MetadataTimeout = 120 * time.Second
)

// Quality carries the per-attempt encoder parameters.
type Quality struct {
	// Distance is the JPEG XL butteraugli distance (0 = lossless).
	Distance float64
	// CRF is the SVT-AV1 rate factor.
	CRF int
	// Retry marks a degraded-quality second attempt.
	Retry bool
}

// Outcome is the result of one transcode attempt.
type Outcome struct {
	Success     bool
	AlreadyDone bool
	InputBytes  int64
	OutputBytes int64
	InputFormat string
	Strategy    string
	Err         error
}

// ErrorText returns the failure description, or "" on success.
func (o Outcome) ErrorText() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Handler converts one media kind. Implementations are stateless and safe
// for concurrent use.
type Handler interface {
	Kind() mediatypes.Kind
	// Target is the output format label and file extension.
	Target() string
	// Detect reports the input format (images) or codec (videos).
	Detect(ctx context.Context, path string) (string, bool)
	Transcode(ctx context.Context, inputPath, outputPath string, q Quality) Outcome
	Validate(ctx context.Context, path string) bool
}

// Handlers returns the image and video handlers keyed by kind.
func Handlers(runner tools.Runner, imageOpts ImageOptions, videoOpts VideoOptions) map[mediatypes.Kind]Handler {
	return map[mediatypes.Kind]Handler{
		mediatypes.KindImage: NewImageHandler(runner, imageOpts),
		mediatypes.KindVideo: NewVideoHandler(runner, videoOpts),
	}
}
