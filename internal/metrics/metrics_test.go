package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipelineMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"AssetsProcessedTotal", AssetsProcessedTotal},
		{"AssetSkipsTotal", AssetSkipsTotal},
		{"AssetInputBytesTotal", AssetInputBytesTotal},
		{"AssetOutputBytesTotal", AssetOutputBytesTotal},
		{"PipelineStageDuration", PipelineStageDuration},
		{"QualityRetriesTotal", QualityRetriesTotal},
		{"CompensationsTotal", CompensationsTotal},
		{"WorkersBusy", WorkersBusy},
		{"ToolInvocationsTotal", ToolInvocationsTotal},
		{"ToolDuration", ToolDuration},
		{"CatalogRequestsTotal", CatalogRequestsTotal},
		{"CatalogRetriesTotal", CatalogRetriesTotal},
		{"DBQueryTotal", DBQueryTotal},
		{"MemoryUsageRatio", MemoryUsageRatio},
		{"MemoryPaused", MemoryPaused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func TestInitializeMetricsPopulatesLabels(t *testing.T) {
	InitializeMetrics()

	if got := testutil.CollectAndCount(AssetsProcessedTotal); got != len(kinds)*len(statuses) {
		t.Errorf("AssetsProcessedTotal series = %d, want %d", got, len(kinds)*len(statuses))
	}
	if got := testutil.CollectAndCount(AssetSkipsTotal); got != len(kinds)*len(skipReasons) {
		t.Errorf("AssetSkipsTotal series = %d, want %d", got, len(kinds)*len(skipReasons))
	}
	if got := testutil.CollectAndCount(ToolDuration); got < len(tools) {
		t.Errorf("ToolDuration series = %d, want at least %d", got, len(tools))
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.2.3", "abc123", "go1.25")

	if got := testutil.ToFloat64(AppInfo.WithLabelValues("1.2.3", "abc123", "go1.25")); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}

type staticProgress struct {
	p Progress
}

func (s staticProgress) Progress() Progress { return s.p }

func TestCollectorUpdatesGauges(t *testing.T) {
	provider := staticProgress{p: Progress{
		Total:       10,
		Completed:   4,
		InputBytes:  1000,
		OutputBytes: 400,
		Busy:        2,
	}}

	c := NewCollector(provider, time.Hour)
	c.Start()
	c.Stop()

	if got := testutil.ToFloat64(RunAssetsTotal); got != 10 {
		t.Errorf("RunAssetsTotal = %v, want 10", got)
	}
	if got := testutil.ToFloat64(RunAssetsCompleted); got != 4 {
		t.Errorf("RunAssetsCompleted = %v, want 4", got)
	}
	if got := testutil.ToFloat64(RunSavedBytes); got != 600 {
		t.Errorf("RunSavedBytes = %v, want 600", got)
	}
	if got := testutil.ToFloat64(WorkersBusy); got != 2 {
		t.Errorf("WorkersBusy = %v, want 2", got)
	}
}

func TestCollectorNilProvider(t *testing.T) {
	c := NewCollector(nil, time.Hour)
	c.Start()
	c.Stop()
}

func TestProgressSavedBytesNegative(t *testing.T) {
	p := Progress{InputBytes: 100, OutputBytes: 150}
	if got := p.SavedBytes(); got != -50 {
		t.Errorf("SavedBytes() = %d, want -50", got)
	}
}
