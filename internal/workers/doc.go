/*
Package workers sizes the conversion worker pool in containerized environments.

# Overview

runtime.NumCPU reports the host CPU count even when the process is limited
by cgroup constraints. GOMAXPROCS follows the container CPU limit (Go 1.19+),
so every helper here derives its count from runtime.GOMAXPROCS(0).

# Basic Usage

	// Download, encode, upload: 1.5 workers per CPU, at most 16
	n := workers.ForMixed(16)

# Configured Concurrency

The CONCURRENCY setting accepts either a positive integer or "auto":

	n, err := workers.Resolve(cfg.ConcurrencyRaw, 32)

An explicit integer is used as is. "auto" delegates to ForMixed with the
given limit. Anything else is a configuration error.

Each video worker runs a multi-threaded ffmpeg process, so large explicit
values mostly add memory pressure without improving throughput.

# Thread Safety

All functions in this package are safe for concurrent use.
*/
package workers
