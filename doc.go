// Package main provides the entry point for the library converter.
//
// The library converter walks an Immich-compatible photo library and
// replaces images with JPEG XL and videos with AV1 in MP4, keeping albums,
// favorites and other relations intact. Every run is a one-shot batch.
//
// # Application Lifecycle
//
//  1. Configuration Loading: reads the environment (and an optional .env file),
//     validates values and provisions the work directory
//  2. Tool Check: reports which of cjxl, magick, exiftool, ffmpeg and ffprobe
//     are on PATH; libvips is initialized when IMAGE_VIPS_FALLBACK is set
//  3. Connectivity: a single search request verifies the API base and key
//  4. Discovery: pages through the catalog for each configured asset type
//  5. Ledger: opens the SQLite run ledger and records a new run (optional)
//  6. Processing: a bounded worker pool downloads, converts, validates and
//     replaces each asset, then prints a summary
//  7. Shutdown: stops the metrics collector and status server, kills any
//     remaining tools and writes the run totals to the ledger
//
// # Dry Run
//
// DRY_RUN defaults to true. A dry run never modifies the catalog: images are
// reported without conversion and videos are only probed for their codec.
//
// # Signals
//
// SIGINT and SIGTERM cancel the run context. Running tools are killed,
// undispatched assets are reported as aborted, and the summary is still
// printed.
//
// # Exit Codes
//
//   - 0: the run completed (individual asset failures do not change this)
//   - 1: configuration error, unreachable catalog, or a run-fatal
//     authentication failure
//   - 130: interrupted by a signal
//
// # Status Server
//
// When METRICS_ENABLED is set, a small HTTP server exposes /metrics,
// /healthz, /progress and /version on METRICS_PORT for the lifetime of the run.
//
// # Related Packages
//
//   - [library-converter/internal/catalog]: catalog API client and discovery
//   - [library-converter/internal/pipeline]: per-asset processing and the worker pool
//   - [library-converter/internal/transcoder]: image and video conversion strategies
//   - [library-converter/internal/database]: SQLite run ledger
//   - [library-converter/internal/startup]: configuration and initialization
//   - [library-converter/internal/server]: status server
//
// The orphans command in cmd/orphans reviews partial successes recorded in
// the ledger.
package main
