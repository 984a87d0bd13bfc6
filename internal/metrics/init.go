package metrics

// Label values shared by InitializeMetrics and the packages that record them.
var (
	kinds    = []string{"image", "video"}
	statuses = []string{
		"success", "skipped", "dry_run_skip", "failed_download", "failed_transcode",
		"failed_upload", "failed_copy", "failed_verification", "partial_success", "error", "aborted",
	}
	skipReasons = []string{
		"already_target_type", "already_target_codec", "output_larger", "retry_failed", "retry_larger", "unsupported_kind",
	}
	stages = []string{"download", "transcode", "validate", "retry", "replace"}
	tools  = []string{"cjxl", "magick", "exiftool", "ffmpeg", "ffprobe", "vips"}
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, k := range kinds {
		for _, s := range statuses {
			AssetsProcessedTotal.WithLabelValues(k, s)
		}
		for _, r := range skipReasons {
			AssetSkipsTotal.WithLabelValues(k, r)
		}
		for _, st := range stages {
			PipelineStageDuration.WithLabelValues(k, st)
		}
		AssetInputBytesTotal.WithLabelValues(k)
		AssetOutputBytesTotal.WithLabelValues(k)
		QualityRetriesTotal.WithLabelValues(k, "accepted")
		QualityRetriesTotal.WithLabelValues(k, "rejected")
	}

	for _, tool := range tools {
		for _, result := range []string{"success", "exit", "timeout", "missing", "error"} {
			ToolInvocationsTotal.WithLabelValues(tool, result)
		}
		ToolDuration.WithLabelValues(tool)
	}

	for _, op := range []string{"search", "download", "upload", "copy", "get", "delete"} {
		CatalogRequestDuration.WithLabelValues(op)
		CatalogRetriesTotal.WithLabelValues(op)
	}
	CatalogTransferBytesTotal.WithLabelValues("download")
	CatalogTransferBytesTotal.WithLabelValues("upload")

	for _, step := range []string{"copy", "verify"} {
		CompensationsTotal.WithLabelValues(step, "success")
		CompensationsTotal.WithLabelValues(step, "error")
		CompensationsTotal.WithLabelValues(step, "skipped")
	}

	for _, s := range []string{"removed", "absent", "error"} {
		ScratchCleanupTotal.WithLabelValues(s)
	}

	for _, op := range []string{"initialize_schema", "begin_run", "record_result", "finish_run", "get_run", "list_orphans", "resolve_orphan"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
