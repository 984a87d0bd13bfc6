// Package pipeline converts catalog assets one at a time and runs many of
// them concurrently.
//
// A Processor handles a single asset: pre-filter, optional dry run, download
// into a scratch file, transcode, validation, the quality retry policy and the
// replace sequence (upload, copy relations, verify, delete original) with
// compensating deletes when a later step fails. Scratch files are removed on
// every path out of Process, including panics.
//
// A Runner feeds assets to a bounded worker pool, recovers panics at the
// worker boundary, and folds results into a Summary. Authentication failures
// stop dispatch; assets not yet started are reported as aborted.
//
// Human-facing output goes through a Reporter. LogReporter, the default,
// writes through the logging package.
package pipeline
