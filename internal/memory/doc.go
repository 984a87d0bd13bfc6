// Package memory keeps the converter inside its container memory limit.
//
// GOMAXPROCS follows the cgroup CPU limit automatically, but the Go memory
// limit does not. [ConfigureFromEnv] derives it from MEMORY_LIMIT (bytes or
// a Kubernetes quantity such as 2Gi, usually injected through the Downward
// API) scaled by MEMORY_RATIO. An explicit GOMEMLIMIT always wins.
//
// The default ratio of 0.75 leaves a quarter of the container for ffmpeg,
// cjxl and ImageMagick child processes and for libvips allocations, none of
// which count against the Go heap.
//
// # Backpressure
//
// [Monitor] samples heap usage and pauses the dispatch of new assets once
// usage crosses PauseRatio, resuming when it falls below ResumeRatio:
//
//	mon := memory.NewMonitor(memory.DefaultConfig())
//	mon.Start()
//	defer mon.Stop()
//
//	for _, asset := range assets {
//	    if !mon.Wait(ctx) {
//	        break
//	    }
//	    jobs <- asset
//	}
//
// Assets already being processed always run to completion. Without any
// memory limit the monitor never pauses.
package memory
