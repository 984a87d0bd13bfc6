package pipeline

import (
	"time"

	"library-converter/internal/mediatypes"
)

// Status is the terminal state of one asset.
type Status string

const (
	StatusSuccess            Status = "success"
	StatusSkipped            Status = "skipped"
	StatusDryRunSkip         Status = "dry_run_skip"
	StatusFailedDownload     Status = "failed_download"
	StatusFailedTranscode    Status = "failed_transcode"
	StatusFailedUpload       Status = "failed_upload"
	StatusFailedCopy         Status = "failed_copy"
	StatusFailedVerification Status = "failed_verification"
	StatusPartialSuccess     Status = "partial_success"
	StatusError              Status = "error"
	// StatusAborted marks assets never started because the run stopped early.
	StatusAborted Status = "aborted"
)

// Statuses lists every status in reporting order.
var Statuses = []Status{
	StatusSuccess, StatusPartialSuccess, StatusSkipped, StatusDryRunSkip,
	StatusFailedDownload, StatusFailedTranscode, StatusFailedUpload, StatusFailedCopy,
	StatusFailedVerification, StatusError, StatusAborted,
}

// Replaced reports whether the converted asset now lives in the catalog.
func (s Status) Replaced() bool {
	return s == StatusSuccess || s == StatusPartialSuccess
}

// SkipReason explains a skipped status.
type SkipReason string

const (
	ReasonNone               SkipReason = ""
	ReasonAlreadyTargetType  SkipReason = "already_target_type"
	ReasonAlreadyTargetCodec SkipReason = "already_target_codec"
	ReasonOutputLarger       SkipReason = "output_larger"
	ReasonRetryFailed        SkipReason = "retry_failed"
	ReasonRetryLarger        SkipReason = "retry_larger"
	ReasonUnsupportedKind    SkipReason = "unsupported_kind"
)

// Result is the single terminal record produced for every asset.
type Result struct {
	AssetID     string
	FileName    string
	Kind        mediatypes.Kind
	Status      Status
	SkipReason  SkipReason
	InputFormat string
	InputBytes  int64
	OutputBytes int64
	SavingsPct  float64
	Attempts    int
	NewAssetID  string
	Error       string
	Duration    time.Duration
}

// SavingsPercent returns (in-out)/in*100, or 0 when nothing was downloaded.
func SavingsPercent(inputBytes, outputBytes int64) float64 {
	if inputBytes <= 0 {
		return 0
	}
	return float64(inputBytes-outputBytes) / float64(inputBytes) * 100
}
