package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Asset pipeline metrics
var (
	AssetsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_converter_assets_processed_total",
			Help: "Total number of assets that reached a terminal status",
		},
		[]string{"kind", "status"},
	)

	AssetSkipsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_converter_asset_skips_total",
			Help: "Total number of skipped assets by reason",
		},
		[]string{"kind", "reason"},
	)

	AssetInputBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_converter_asset_input_bytes_total",
			Help: "Total bytes downloaded for conversion",
		},
		[]string{"kind"},
	)

	AssetOutputBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_converter_asset_output_bytes_total",
			Help: "Total bytes of accepted converted output",
		},
		[]string{"kind"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "library_converter_pipeline_stage_duration_seconds",
			Help:    "Duration of individual pipeline stages in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600, 14400},
		},
		[]string{"kind", "stage"}, // "download", "transcode", "validate", "retry", "replace"
	)

	QualityRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_converter_quality_retries_total",
			Help: "Total number of quality retries by verdict",
		},
		[]string{"kind", "verdict"}, // "accepted", "rejected"
	)

	CompensationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_converter_compensations_total",
			Help: "Total number of compensating deletes issued by the replace protocol",
		},
		[]string{"step", "status"}, // step: "copy", "verify"; status: "success", "error"
	)

	WorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "library_converter_workers_busy",
			Help: "Number of workers currently processing an asset",
		},
	)
)

// Run progress metrics
var (
	RunAssetsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "library_converter_run_assets_total",
			Help: "Number of assets selected for the current run",
		},
	)

	RunAssetsCompleted = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "library_converter_run_assets_completed",
			Help: "Number of assets of the current run that reached a terminal status",
		},
	)

	RunSavedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "library_converter_run_saved_bytes",
			Help: "Bytes saved so far in the current run (negative when outputs grew)",
		},
	)

	RunStartTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "library_converter_run_start_timestamp",
			Help: "Unix timestamp of the start of the current run",
		},
	)
)

// External tool metrics
var (
	ToolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_converter_tool_invocations_total",
			Help: "Total number of external tool invocations by result",
		},
		[]string{"tool", "result"}, // result: "success", "exit", "timeout", "missing", "error"
	)

	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "library_converter_tool_duration_seconds",
			Help:    "External tool run time in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600, 14400},
		},
		[]string{"tool"},
	)

	ToolsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "library_converter_tools_running",
			Help: "Number of external tool processes currently running",
		},
	)
)

// Catalog API metrics
var (
	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_converter_catalog_requests_total",
			Help: "Total number of catalog API requests by operation and outcome",
		},
		[]string{"operation", "status"},
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "library_converter_catalog_request_duration_seconds",
			Help:    "Catalog API request duration in seconds, retries included",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"operation"},
	)

	CatalogRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_converter_catalog_retries_total",
			Help: "Total number of catalog API retry attempts",
		},
		[]string{"operation"},
	)

	CatalogTransferBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_converter_catalog_transfer_bytes_total",
			Help: "Total bytes transferred to and from the catalog",
		},
		[]string{"direction"}, // "download", "upload"
	)
)

// Scratch file metrics
var (
	ScratchCleanupTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_converter_scratch_cleanup_total",
			Help: "Total number of scratch file removals by status",
		},
		[]string{"status"}, // "removed", "absent", "error"
	)

	ScratchRetryAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "library_converter_scratch_retry_attempts_total",
			Help: "Total number of scratch removal retries after stale file handle errors",
		},
	)
)

// Ledger metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_converter_db_queries_total",
			Help: "Total number of ledger database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "library_converter_db_query_duration_seconds",
			Help:    "Ledger database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)

// Status server metrics
var (
	StatusRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "library_converter_status_requests_total",
			Help: "Total number of status server requests",
		},
		[]string{"method", "route", "status"},
	)

	StatusRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "library_converter_status_request_duration_seconds",
			Help:    "Status server request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method", "route"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "library_converter_memory_usage_ratio",
			Help: "Go heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "library_converter_memory_paused",
			Help: "Whether dispatch is paused due to memory pressure (1 = paused)",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "library_converter_memory_pauses_total",
			Help: "Total number of times dispatch was paused due to memory pressure",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "library_converter_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
