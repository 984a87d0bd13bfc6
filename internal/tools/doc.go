// Package tools runs the external encoders and probes (cjxl, magick, exiftool,
// ffmpeg, ffprobe) with per-call timeouts.
//
// Every invocation goes through the Runner interface so callers can be tested
// with a fake. ExecRunner captures stdout and a bounded tail of stderr, tracks
// live processes for Cleanup on shutdown, and records invocation counts and
// durations in the metrics package.
//
// Failures are reported as *ToolError with one of four kinds:
//
//	missing   binary not on PATH
//	timeout   the per-call timeout elapsed; the process was killed
//	exit      nonzero exit status
//	canceled  the caller's context was canceled (interrupt)
package tools
