package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"library-converter/internal/catalog"
	"library-converter/internal/logging"
	"library-converter/internal/metrics"
)

// DefaultProgressEvery is how many completions pass between progress lines.
const DefaultProgressEvery = 50

// AssetProcessor handles one asset. Process must return a Result for every
// asset; a non-nil error stops the run.
type AssetProcessor interface {
	Process(ctx context.Context, asset catalog.Asset, rep Reporter) (Result, error)
}

// Sink persists terminal results, typically the run ledger.
type Sink interface {
	Record(ctx context.Context, r Result) error
}

// Gate holds back dispatch, e.g. under memory pressure. Wait returns false
// when dispatch should stop altogether.
type Gate interface {
	Wait(ctx context.Context) bool
}

// RunnerConfig configures the worker pool.
type RunnerConfig struct {
	// Concurrency is the number of workers (minimum 1)
	Concurrency int
	// ProgressEvery logs progress after this many completions (0 = default)
	ProgressEvery int
	// Sink receives every result when set
	Sink Sink
	// Gate is consulted before each dispatch when set
	Gate Gate
}

// Runner fans assets out to a bounded pool of workers and folds their
// results into a Summary.
type Runner struct {
	proc   AssetProcessor
	rep    Reporter
	config RunnerConfig

	busy atomic.Int64

	mu      sync.Mutex
	summary Summary
	started time.Time
}

// NewRunner creates a runner.
func NewRunner(proc AssetProcessor, rep Reporter, config RunnerConfig) *Runner {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.ProgressEvery <= 0 {
		config.ProgressEvery = DefaultProgressEvery
	}
	return &Runner{
		proc:    proc,
		rep:     rep,
		config:  config,
		summary: newSummary(0),
	}
}

// Run processes every asset and returns the aggregated summary. The summary
// is complete even when the run stops early: assets that were never started
// are reported as aborted. The error is the first run-fatal error, or the
// parent context's error when the run was interrupted.
func (r *Runner) Run(ctx context.Context, assets []catalog.Asset) (Summary, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	r.summary = newSummary(len(assets))
	r.started = time.Now()
	r.mu.Unlock()
	metrics.RunStartTimestamp.Set(float64(r.started.Unix()))

	logging.Info("Processing %d assets with %d workers", len(assets), r.config.Concurrency)

	jobs := make(chan catalog.Asset)
	results := make(chan Result, r.config.Concurrency)

	var fatalOnce sync.Once
	var fatalErr error

	var wg sync.WaitGroup
	for i := 0; i < r.config.Concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			logging.Debug("Worker %d started", id)
			for asset := range jobs {
				if runCtx.Err() != nil {
					results <- abortedResult(asset)
					continue
				}
				res, err := r.process(runCtx, asset)
				if err != nil {
					fatalOnce.Do(func() {
						fatalErr = err
						logging.Error("Fatal error, stopping run: %v", err)
						cancel()
					})
				}
				results <- res
			}
			logging.Debug("Worker %d finished", id)
		}(i)
	}

	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for res := range results {
			r.collect(ctx, res)
		}
	}()

	dispatched := 0
dispatch:
	for _, asset := range assets {
		if runCtx.Err() != nil {
			break
		}
		if r.config.Gate != nil && !r.config.Gate.Wait(runCtx) {
			break
		}
		select {
		case jobs <- asset:
			dispatched++
		case <-runCtx.Done():
			break dispatch
		}
	}

	close(jobs)
	wg.Wait()
	close(results)
	collectorWg.Wait()

	if remaining := assets[dispatched:]; len(remaining) > 0 {
		logging.Warn("Run stopped early, %d assets not started", len(remaining))
		for _, asset := range remaining {
			r.collect(ctx, abortedResult(asset))
		}
	}

	summary := r.Snapshot()
	if summary.Completed()%r.config.ProgressEvery != 0 || summary.Completed() == 0 {
		r.rep.Progress(summary.Completed(), summary.Total)
	}
	r.rep.Summary(summary)

	if fatalErr != nil {
		return summary, fatalErr
	}
	return summary, ctx.Err()
}

// process runs one asset, converting an escaped panic into an error result.
func (r *Runner) process(ctx context.Context, asset catalog.Asset) (res Result, err error) {
	r.busy.Add(1)
	defer r.busy.Add(-1)

	defer func() {
		if rec := recover(); rec != nil {
			r.rep.Errorf(asset, "panic while processing: %v", rec)
			kind, _ := asset.Kind()
			res = Result{
				AssetID:  asset.ID,
				FileName: asset.OriginalFileName,
				Kind:     kind,
				Status:   StatusError,
				Error:    fmt.Sprintf("panic: %v", rec),
			}
			err = nil
		}
	}()

	return r.proc.Process(ctx, asset, r.rep)
}

func abortedResult(asset catalog.Asset) Result {
	kind, _ := asset.Kind()
	return Result{
		AssetID:  asset.ID,
		FileName: asset.OriginalFileName,
		Kind:     kind,
		Status:   StatusAborted,
	}
}

// collect folds one result into the running summary. It is only called from
// the collector goroutine, or after it has finished.
func (r *Runner) collect(ctx context.Context, res Result) {
	r.mu.Lock()
	r.summary.add(res)
	completed, total := r.summary.Completed(), r.summary.Total
	r.mu.Unlock()

	recordResultMetrics(res)

	if r.config.Sink != nil {
		if err := r.config.Sink.Record(context.WithoutCancel(ctx), res); err != nil {
			logging.Warn("Failed to record result for %s: %v", res.AssetID, err)
		}
	}

	if completed%r.config.ProgressEvery == 0 {
		r.rep.Progress(completed, total)
	}
}

func recordResultMetrics(res Result) {
	kind := string(res.Kind)
	if kind == "" {
		kind = "unknown"
	}
	metrics.AssetsProcessedTotal.WithLabelValues(kind, string(res.Status)).Inc()
	if res.SkipReason != ReasonNone {
		metrics.AssetSkipsTotal.WithLabelValues(kind, string(res.SkipReason)).Inc()
	}
	if res.InputBytes > 0 {
		metrics.AssetInputBytesTotal.WithLabelValues(kind).Add(float64(res.InputBytes))
	}
	if res.Status.Replaced() && res.OutputBytes > 0 {
		metrics.AssetOutputBytesTotal.WithLabelValues(kind).Add(float64(res.OutputBytes))
	}
}

// Started reports whether Run has been called.
func (r *Runner) Started() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.started.IsZero()
}

// Snapshot returns a copy of the running summary.
func (r *Runner) Snapshot() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.summary.clone()
	if !r.started.IsZero() {
		s.Elapsed = time.Since(r.started)
	}
	return s
}

// Progress implements metrics.ProgressProvider.
func (r *Runner) Progress() metrics.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return metrics.Progress{
		Total:       r.summary.Total,
		Completed:   r.summary.Completed(),
		InputBytes:  r.summary.ReplacedInputBytes,
		OutputBytes: r.summary.ReplacedOutputBytes,
		Busy:        int(r.busy.Load()),
	}
}
