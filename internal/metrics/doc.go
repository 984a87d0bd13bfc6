// Package metrics provides Prometheus instrumentation for the library converter.
//
// All metrics are prefixed with "library_converter_" and registered with the
// default registry through promauto, so importing the package is enough to
// have them exported by promhttp.
//
// # Metric Categories
//
// ## Asset Pipeline
//   - AssetsProcessedTotal: terminal statuses by kind
//   - AssetSkipsTotal: skipped assets by kind and reason
//   - AssetInputBytesTotal / AssetOutputBytesTotal: bytes in and accepted bytes out
//   - PipelineStageDuration: download, transcode, validate, retry and replace timings
//   - QualityRetriesTotal: outcome of quality retries
//   - CompensationsTotal: compensating deletes issued by the replace protocol
//   - WorkersBusy: workers currently holding an asset
//
// ## Run Progress
//   - RunAssetsTotal, RunAssetsCompleted, RunSavedBytes, RunStartTimestamp
//
// These gauges are refreshed by a Collector polling a ProgressProvider.
//
// ## External Tools
//   - ToolInvocationsTotal: invocations by tool and result (success, exit, timeout, missing)
//   - ToolDuration: run time per tool
//   - ToolsRunning: processes currently alive
//
// ## Catalog API
//   - CatalogRequestsTotal, CatalogRequestDuration, CatalogRetriesTotal
//   - CatalogTransferBytesTotal: download and upload volume
//
// ## Scratch Files and Ledger
//   - ScratchCleanupTotal, ScratchRetryAttempts
//   - DBQueryTotal, DBQueryDuration
//
// ## Status Server
//   - StatusRequestsTotal, StatusRequestDuration: by method and route template
//
// ## Memory
//   - MemoryUsageRatio, MemoryPaused, MemoryPausesTotal: dispatch backpressure
//
// Call InitializeMetrics once at startup so that every label combination is
// present from the first scrape.
package metrics
