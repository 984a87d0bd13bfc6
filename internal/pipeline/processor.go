package pipeline

import (
	"context"
	"errors"
	"time"

	"library-converter/internal/catalog"
	"library-converter/internal/filesystem"
	"library-converter/internal/logging"
	"library-converter/internal/media"
	"library-converter/internal/mediatypes"
	"library-converter/internal/metrics"
	"library-converter/internal/transcoder"
)

// Options configures per-asset processing.
type Options struct {
	DryRun  bool
	WorkDir string

	ImageDistance      float64
	ImageDistanceRetry float64
	VideoCRF           int
	VideoCRFRetry      int

	EnableRetry       bool
	AcceptRetryOutput bool
	AllowLarger       bool
}

// Processor runs the download, transcode and replace sequence for one asset
// at a time. It holds no per-asset state and may be shared by workers.
type Processor struct {
	client   catalog.Client
	handlers map[mediatypes.Kind]transcoder.Handler
	opts     Options
	policy   RetryPolicy
}

// NewProcessor creates a processor over a catalog client and kind handlers.
func NewProcessor(client catalog.Client, handlers map[mediatypes.Kind]transcoder.Handler, opts Options) *Processor {
	return &Processor{
		client:   client,
		handlers: handlers,
		opts:     opts,
		policy: RetryPolicy{
			EnableRetry:       opts.EnableRetry,
			AllowLarger:       opts.AllowLarger,
			AcceptRetryOutput: opts.AcceptRetryOutput,
		},
	}
}

func (p *Processor) quality(retry bool) transcoder.Quality {
	if retry {
		return transcoder.Quality{Distance: p.opts.ImageDistanceRetry, CRF: p.opts.VideoCRFRetry, Retry: true}
	}
	return transcoder.Quality{Distance: p.opts.ImageDistance, CRF: p.opts.VideoCRF}
}

func alreadyDoneReason(kind mediatypes.Kind) SkipReason {
	if kind == mediatypes.KindVideo {
		return ReasonAlreadyTargetCodec
	}
	return ReasonAlreadyTargetType
}

func observeStage(kind mediatypes.Kind, stage string, start time.Time) {
	metrics.PipelineStageDuration.WithLabelValues(string(kind), stage).Observe(time.Since(start).Seconds())
}

// Process converts and replaces a single asset and always returns its Result.
// The error is non-nil only for authentication or authorization failures,
// after which the run must stop.
func (p *Processor) Process(ctx context.Context, asset catalog.Asset, rep Reporter) (Result, error) {
	start := time.Now()
	res := Result{AssetID: asset.ID, FileName: asset.OriginalFileName}
	finish := func(status Status, reason SkipReason, err error) (Result, error) {
		res.Status = status
		res.SkipReason = reason
		if err != nil && res.Error == "" {
			res.Error = err.Error()
		}
		res.Duration = time.Since(start)
		if catalog.IsFatal(err) {
			return res, err
		}
		return res, nil
	}

	kind, ok := asset.Kind()
	handler := p.handlers[kind]
	if !ok || handler == nil {
		rep.Debugf(asset, "unsupported asset type %q", asset.Type)
		return finish(StatusSkipped, ReasonUnsupportedKind, nil)
	}
	res.Kind = kind

	if kind == mediatypes.KindImage && mediatypes.IsTargetImage(asset.OriginalMimeType, asset.OriginalFileName) {
		rep.Debugf(asset, "already %s, skipping", handler.Target())
		return finish(StatusSkipped, ReasonAlreadyTargetType, nil)
	}

	if p.opts.DryRun && kind == mediatypes.KindImage {
		rep.Infof(asset, "[dry-run] would convert to %s", handler.Target())
		return finish(StatusDryRunSkip, ReasonNone, nil)
	}

	scratch := filesystem.NewScratch(p.opts.WorkDir, asset.ID, handler.Target())
	defer func() {
		if err := scratch.Cleanup(); err != nil {
			rep.Warnf(asset, "failed to remove scratch files: %v", err)
		}
	}()

	stageStart := time.Now()
	inputBytes, err := p.client.Download(ctx, asset.ID, scratch.InputPath)
	observeStage(kind, "download", stageStart)
	if err != nil {
		rep.Errorf(asset, "download failed: %v", err)
		return finish(StatusFailedDownload, ReasonNone, err)
	}
	res.InputBytes = inputBytes
	rep.Debugf(asset, "downloaded %d bytes", inputBytes)

	if kind == mediatypes.KindImage && logging.IsDebugEnabled() {
		if dims, err := media.GetImageDimensions(scratch.InputPath); err == nil {
			rep.Debugf(asset, "dimensions %dx%d (%d pixels)", dims.Width, dims.Height, dims.Pixels())
		}
	}

	if p.opts.DryRun {
		codec, ok := handler.Detect(ctx, scratch.InputPath)
		res.InputFormat = codec
		if ok && codec == mediatypes.TargetVideoCodec {
			rep.Debugf(asset, "already %s", codec)
			return finish(StatusSkipped, ReasonAlreadyTargetCodec, nil)
		}
		rep.Infof(asset, "[dry-run] would convert %s to %s", displayFormat(codec), mediatypes.TargetVideoCodec)
		return finish(StatusDryRunSkip, ReasonNone, nil)
	}

	outcome, valid := p.attempt(ctx, handler, scratch, false)
	res.Attempts++
	res.InputFormat = outcome.InputFormat
	if outcome.AlreadyDone {
		rep.Debugf(asset, "already %s", displayFormat(outcome.InputFormat))
		return finish(StatusSkipped, alreadyDoneReason(kind), nil)
	}
	if !outcome.Success {
		rep.Errorf(asset, "transcode failed: %s", outcome.ErrorText())
		return finish(StatusFailedTranscode, ReasonNone, outcome.Err)
	}
	if !valid {
		err := errors.New("output validation failed")
		rep.Errorf(asset, "%v", err)
		return finish(StatusFailedTranscode, ReasonNone, err)
	}
	res.OutputBytes = outcome.OutputBytes

	verdict, reason := p.policy.Initial(inputBytes, outcome.OutputBytes)
	if verdict == VerdictRetrying {
		rep.Infof(asset, "output larger than input (%d > %d), retrying at lower quality", outcome.OutputBytes, inputBytes)
		if err := scratch.RemoveOutput(); err != nil {
			rep.Warnf(asset, "failed to remove first output: %v", err)
		}

		stageStart = time.Now()
		retried, retryValid := p.attempt(ctx, handler, scratch, true)
		observeStage(kind, "retry", stageStart)
		res.Attempts++

		ok := retried.Success && !retried.AlreadyDone && retryValid
		if ok {
			res.OutputBytes = retried.OutputBytes
		} else if retried.Err != nil {
			rep.Warnf(asset, "retry failed: %s", retried.ErrorText())
		}
		verdict, reason = p.policy.AfterRetry(ok, inputBytes, retried.OutputBytes)
		metrics.QualityRetriesTotal.WithLabelValues(string(kind), verdict.String()).Inc()
	}

	if verdict == VerdictRejected {
		rep.Infof(asset, "keeping original: %s (%d -> %d bytes)", reason, inputBytes, res.OutputBytes)
		return finish(StatusSkipped, reason, nil)
	}

	res.SavingsPct = SavingsPercent(inputBytes, res.OutputBytes)
	rep.Infof(asset, "%s -> %s: %d -> %d bytes (%.1f%% saved)",
		displayFormat(res.InputFormat), handler.Target(), inputBytes, res.OutputBytes, res.SavingsPct)

	stageStart = time.Now()
	status, newID, err := p.replace(ctx, asset, handler.Target(), scratch.OutputPath, rep)
	observeStage(kind, "replace", stageStart)
	res.NewAssetID = newID
	if status == StatusSuccess {
		rep.Infof(asset, "replaced with %s", newID)
	}
	return finish(status, ReasonNone, err)
}

// attempt runs one transcode and validates its output.
func (p *Processor) attempt(ctx context.Context, handler transcoder.Handler, scratch filesystem.Scratch, retry bool) (transcoder.Outcome, bool) {
	kind := handler.Kind()

	stageStart := time.Now()
	outcome := handler.Transcode(ctx, scratch.InputPath, scratch.OutputPath, p.quality(retry))
	if !retry {
		observeStage(kind, "transcode", stageStart)
	}
	if !outcome.Success {
		return outcome, false
	}

	stageStart = time.Now()
	valid := handler.Validate(ctx, scratch.OutputPath)
	observeStage(kind, "validate", stageStart)
	return outcome, valid
}

func displayFormat(format string) string {
	if format == "" {
		return "unknown"
	}
	return format
}
